package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/daywell/internal/config"
)

func TestNewReturnsNilWithoutKey(t *testing.T) {
	ctx := context.Background()

	client, err := New(ctx, config.Config{LLMProvider: ProviderOpenAI})
	require.NoError(t, err)
	require.Nil(t, client)

	client, err = New(ctx, config.Config{LLMProvider: ProviderGemini})
	require.NoError(t, err)
	require.Nil(t, client)

	client, err = New(ctx, config.Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	require.IsType(t, &OpenAIClient{}, client)

	_, err = New(ctx, config.Config{LLMProvider: "anthropic-local"})
	require.Error(t, err)
}

func TestOpenAIClientGenerate(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[1,2,3]"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test"})
	text, err := client.Generate(context.Background(), Request{Prompt: "hello", Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens})
	require.NoError(t, err)
	require.Equal(t, "[1,2,3]", text)

	require.Equal(t, defaultOpenAIModel, captured.Model)
	require.Equal(t, 0.7, captured.Temperature)
	require.Equal(t, 500, captured.MaxTokens)
	require.Equal(t, []chatMessage{{Role: "user", Content: "hello"}}, captured.Messages)
}

func TestOpenAIClientNon2xxIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"secret details"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"}).Generate(context.Background(), Request{Prompt: "p"})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	require.NotContains(t, err.Error(), "secret details")
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"}).Generate(context.Background(), Request{Prompt: "p"})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
}

func TestGeminiClientGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[]"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "g-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), Request{Prompt: "hello", Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens})
	require.NoError(t, err)
	require.Equal(t, "[]", text)

	generation, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from request")
	require.Equal(t, "application/json", generation["responseMimeType"])
	require.EqualValues(t, 500, generation["maxOutputTokens"])
}

func TestGeminiClientAPIErrorIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "g-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), Request{Prompt: "hello"})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	require.Equal(t, 503, upstream.StatusCode)
}

func TestOpenAIClientRejectsOversizedBody(t *testing.T) {
	content := strings.Repeat("a", maxResponseBytes)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"}).Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode chat response")
}
