package encoding

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

//ParseBbox parses a "minlon,minlat,maxlon,maxlat" query value.
func ParseBbox(bbox string) (*orb.Bound, error) {

	coords := strings.Split(bbox, ",")
	if len(coords) != 4 {
		return nil, errors.New("bbox does not have 4 elements")
	}

	vals := make([]float64, 4)
	for i, coord := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(coord), 64)
		if err != nil {
			return nil, errors.New("unable to parse coordinates from bbox")
		}
		vals[i] = v
	}
	if vals[0] > vals[2] || vals[1] > vals[3] {
		return nil, errors.New("bbox min exceeds max")
	}

	return &orb.Bound{Min: orb.Point{vals[0], vals[1]}, Max: orb.Point{vals[2], vals[3]}}, nil
}
