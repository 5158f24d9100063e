package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaReturnsExistingID(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		require.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "JSON", body["schemaType"])

		_, _ = w.Write([]byte(`{"subject":"freeze_events-value","version":1,"id":17}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "freeze_events-value", freezeChangedSchema)
	require.NoError(t, err)
	require.Equal(t, 17, id)
	require.Equal(t, []string{"POST /subjects/freeze_events-value"}, paths)
}

func TestEnsureSchemaRegistersUnknownSubject(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/subjects/freeze_events-value" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":40401,"message":"Subject not found."}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":3}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "freeze_events-value", freezeChangedSchema)
	require.NoError(t, err)
	require.Equal(t, 3, id)
	require.Equal(t, []string{
		"POST /subjects/freeze_events-value",
		"POST /subjects/freeze_events-value/versions",
	}, paths)
}

func TestEnsureSchemaSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "s", "{}")
	require.ErrorContains(t, err, "schema registry returned 500")
}
