package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point is zero",
			lat1: 10.7769, lng1: 106.7009,
			lat2: 10.7769, lng2: 106.7009,
			want:      0,
			tolerance: 0,
		},
		{
			name: "ho chi minh city to hanoi",
			lat1: 10.7769, lng1: 106.7009,
			lat2: 21.0285, lng2: 105.8542,
			want:      1140000,
			tolerance: 20000,
		},
		{
			name: "one degree of latitude at the equator",
			lat1: 0, lng1: 0,
			lat2: 1, lng2: 0,
			want:      111195,
			tolerance: 100,
		},
		{
			name: "short hop across district 1",
			lat1: 10.7769, lng1: 106.7009,
			lat2: 10.7797, lng2: 106.6990,
			want:      375,
			tolerance: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Distance(10.7769, 106.7009, 21.0285, 105.8542)
	b := Distance(21.0285, 105.8542, 10.7769, 106.7009)
	assert.InDelta(t, a, b, 1e-6)
}
