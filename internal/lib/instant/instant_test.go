package instant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalize(t *testing.T) {
	ref := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  any
		want time.Time
	}{
		{name: "native time", raw: ref, want: ref},
		{name: "pointer time", raw: &ref, want: ref},
		{name: "bson datetime", raw: primitive.NewDateTimeFromTime(ref), want: ref},
		{name: "seconds struct", raw: Seconds{Seconds: ref.Unix()}, want: ref},
		{name: "seconds map", raw: map[string]any{"seconds": ref.Unix(), "nanos": int64(0)}, want: ref},
		{name: "underscore seconds map", raw: map[string]any{"_seconds": float64(ref.Unix())}, want: ref},
		{name: "rfc3339 string", raw: "2024-06-01T12:30:00Z", want: ref},
		{name: "rfc3339 nano string", raw: "2024-06-01T12:30:00.000000000Z", want: ref},
		{name: "epoch millis int64", raw: ref.UnixMilli(), want: ref},
		{name: "epoch millis float", raw: float64(ref.UnixMilli()), want: ref},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNormalizeFallback(t *testing.T) {
	// Nil, zero and garbage inputs fall back to the current instant. A
	// zero time.Time means the timestamp was never set, so it must not
	// pass through as year one.
	zero := time.Time{}
	for _, raw := range []any{nil, "not a timestamp", struct{}{}, int64(-5), map[string]any{"foo": 1}, (*time.Time)(nil), zero, &zero} {
		got := Normalize(raw)
		assert.WithinDuration(t, time.Now(), got, time.Second)
	}
}
