package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var computedAt = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.UTC)

func entry(activity string, minutes, hour int, date string) ActivityLogEntry {
	return ActivityLogEntry{Activity: activity, DurationMin: minutes, Hour: hour, Date: date}
}

func TestAggregateSumsByActivity(t *testing.T) {
	entries := []ActivityLogEntry{
		entry("work", 90, 9, "2025-06-02"),
		entry("work", 30, 10, "2025-06-02"),
		entry("rest", 60, 13, "2025-06-02"),
		entry("work", 45, 9, "2025-06-01"),
	}

	snapshot := Aggregate("user-1", "2025-06-02", entries, computedAt)

	want := []Slice{
		{Activity: "work", Minutes: 120, Color: categoryColors["work"], Share: 120.0 / 180.0},
		{Activity: "rest", Minutes: 60, Color: categoryColors["rest"], Share: 60.0 / 180.0},
	}
	if diff := cmp.Diff(want, snapshot.Slices); diff != "" {
		t.Fatalf("unexpected slices (-want +got):\n%s", diff)
	}
	if snapshot.TotalMinutes != 180 {
		t.Fatalf("expected total 180 got %d", snapshot.TotalMinutes)
	}
	if snapshot.MostActive != "work" {
		t.Fatalf("expected most active work got %q", snapshot.MostActive)
	}
}

func TestAggregateHourSlots(t *testing.T) {
	entries := []ActivityLogEntry{
		entry("work", 40, 9, "2025-06-02"),
		entry("social", 20, 9, "2025-06-02"),
		entry("exercise", 30, 18, "2025-06-02"),
	}

	snapshot := Aggregate("user-1", "2025-06-02", entries, computedAt)

	if len(snapshot.Hours) != 24 {
		t.Fatalf("expected 24 hour slots got %d", len(snapshot.Hours))
	}
	want := HourSlot{Hour: 9, Activity: "work", Minutes: 60, Color: categoryColors["work"]}
	if diff := cmp.Diff(want, snapshot.Hours[9]); diff != "" {
		t.Fatalf("unexpected hour 9 (-want +got):\n%s", diff)
	}
	if snapshot.Hours[0] != (HourSlot{Hour: 0}) {
		t.Fatalf("expected empty hour 0 got %+v", snapshot.Hours[0])
	}
	if snapshot.Hours[18].Activity != "exercise" {
		t.Fatalf("expected exercise at 18 got %q", snapshot.Hours[18].Activity)
	}
}

func TestAggregateOverflowPaletteCyclesPerComputation(t *testing.T) {
	entries := []ActivityLogEntry{entry("work", 10, 1, "d")}
	for i, name := range []string{"gardening", "knitting", "chess", "baking", "surfing", "piano", "pottery"} {
		entries = append(entries, entry(name, 10+i, 2, "d"))
	}

	first := Aggregate("u", "d", entries, computedAt)
	second := Aggregate("u", "d", entries, computedAt)

	if first.Slices[0].Color != categoryColors["work"] {
		t.Fatalf("known category should use table color, got %s", first.Slices[0].Color)
	}
	for i := 1; i < len(first.Slices); i++ {
		want := overflowPalette[(i-1)%len(overflowPalette)]
		if first.Slices[i].Color != want {
			t.Fatalf("slice %d (%s): expected %s got %s", i, first.Slices[i].Activity, want, first.Slices[i].Color)
		}
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("aggregation is not repeatable (-first +second):\n%s", diff)
	}
}

func TestMostActiveTieBreaksByName(t *testing.T) {
	entries := []ActivityLogEntry{
		entry("work", 60, 9, "d"),
		entry("exercise", 60, 7, "d"),
		entry("rest", 30, 22, "d"),
	}
	for i := 0; i < 20; i++ {
		if got := Aggregate("u", "d", entries, computedAt).MostActive; got != "exercise" {
			t.Fatalf("expected exercise on tie, got %q", got)
		}
	}
}

func TestAggregateEmptyDay(t *testing.T) {
	snapshot := Aggregate("u", "2025-06-02", nil, computedAt)
	if len(snapshot.Slices) != 0 || snapshot.TotalMinutes != 0 || snapshot.MostActive != "" {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}
	if snapshot.Slices == nil {
		t.Fatal("slices should be an empty, non-nil slice for JSON rendering")
	}
}

func TestRecordActivityInputValidate(t *testing.T) {
	valid := RecordActivityInput{UserID: "u", Date: "2025-06-02", Hour: 23, Activity: " Work ", DurationMin: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	cases := map[string]struct {
		mutate func(*RecordActivityInput)
		field  string
	}{
		"missing user":    {func(in *RecordActivityInput) { in.UserID = "" }, "user_id"},
		"bad date":        {func(in *RecordActivityInput) { in.Date = "2025-02-30" }, "date"},
		"hour too high":   {func(in *RecordActivityInput) { in.Hour = 24 }, "hour"},
		"negative hour":   {func(in *RecordActivityInput) { in.Hour = -1 }, "hour"},
		"blank activity":  {func(in *RecordActivityInput) { in.Activity = "   " }, "activity"},
		"zero duration":   {func(in *RecordActivityInput) { in.DurationMin = 0 }, "duration"},
		"negative length": {func(in *RecordActivityInput) { in.DurationMin = -15 }, "duration"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := in.Validate()
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError got %T (%v)", err, err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %s got %s", tc.field, verr.Field)
			}
		})
	}
}
