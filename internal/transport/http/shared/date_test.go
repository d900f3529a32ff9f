package shared

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Time
		ok    bool
	}{
		{name: "empty means unset", value: "", want: time.Time{}, ok: true},
		{name: "iso date", value: "2026-03-15", want: want, ok: true},
		{name: "french date", value: "15/03/2026", want: want, ok: true},
		{name: "rfc3339", value: "2026-03-15T00:00:00Z", want: want, ok: true},
		{name: "garbage", value: "mars 2026", ok: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.value)
			if tc.ok != (err == nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tc.ok && !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
