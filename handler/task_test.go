package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadline(t *testing.T) {

	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2026-09-01T10:30:00Z", time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)},
		{"2026-09-01 10:30:00", time.Date(2026, 9, 1, 10, 30, 0, 0, time.Local)},
		{"2026-09-01", time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, c := range cases {
		got, err := parseDeadline(c.raw)
		require.NoError(t, err, c.raw)
		assert.True(t, got.Equal(c.want), c.raw)
	}

	_, err := parseDeadline("next tuesday")
	assert.EqualError(t, err, "unrecognized deadline format")
}
