package time

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"rfc3339", "2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"rfc1123z", "Tue, 02 Jan 2024 03:04:05 +0000", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"single digit day", "Tue, 2 Jan 2024 03:04:05 +0000", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"date only", "2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"sql style", " 2024-01-02 03:04:05 ", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"offset converted to utc", "2024-01-02T05:04:05+02:00", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "last tuesday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParsePtr(t *testing.T) {
	assert.Nil(t, ParsePtr("nope"))
	if p := ParsePtr("2024-01-02"); assert.NotNil(t, p) {
		assert.Equal(t, 2024, p.Year())
	}
}
