package encoding

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBbox(t *testing.T) {

	bound, err := ParseBbox("114.3, 23.4, 114.5, 23.6")

	require.NoError(t, err)
	assert.Equal(t, orb.Point{114.3, 23.4}, bound.Min)
	assert.Equal(t, orb.Point{114.5, 23.6}, bound.Max)
}

func TestParseBboxErrors(t *testing.T) {

	cases := []struct {
		bbox string
		msg  string
	}{
		{"114.3,23.4,114.5", "bbox does not have 4 elements"},
		{"114.3,23.4,114.5,23.6,1", "bbox does not have 4 elements"},
		{"114.3,abc,114.5,23.6", "unable to parse coordinates from bbox"},
		{"114.5,23.4,114.3,23.6", "bbox min exceeds max"},
		{"114.3,23.6,114.5,23.4", "bbox min exceeds max"},
	}
	for _, c := range cases {
		_, err := ParseBbox(c.bbox)
		require.Error(t, err, c.bbox)
		assert.Equal(t, c.msg, err.Error())
	}
}
