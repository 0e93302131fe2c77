package engine

import (
	"math"
	"testing"

	"github.com/char5742/mouse2joystick/internal/screen"
)

func TestAutoCenterValue(t *testing.T) {
	tests := []struct {
		d, inv int
		want   int32
	}{
		{0, 1, 16384},
		{1, 1, 16883},   // 499.09 -> 499
		{1, -1, 15885},  // 反転
		{10, 1, 21293},  // 4909.09 -> 4909
		{-10, 1, 11293}, // -5090.91 -> -5091
		{100, 1, 32767}, // 57293 は最大値に制限される
		{1000, 1, 0},    // 大きな変位は曲線が負に振れる
	}
	for _, tt := range tests {
		if got := autoCenterValue(tt.d, tt.inv, 0, 16384, 32767); got != tt.want {
			t.Errorf("autoCenterValue(%d, %d) = %d, want %d", tt.d, tt.inv, got, tt.want)
		}
	}
}

func TestFixedRangeValue(t *testing.T) {
	const min, mid, max = 0, 16384, 32767

	// 幅 1920 では 1 ピクセルあたり 32767/1920 = 17
	tests := []struct {
		name string
		d    int
		inv  int
		want int32
	}{
		{"center", 0, 1, mid},
		{"interior", 100, 1, 18084},
		{"interior negative", -100, 1, 14684},
		{"interior inverted", 100, -1, 14684},
		{"near half extent", 959, 1, 32687},
		{"half extent", 960, 1, 32704},
		{"full extent", 1920, 1, max},
		{"full extent negative", -1920, 1, min},
		{"full extent inverted", 1920, -1, min},
		{"beyond extent", 5000, 1, max},
		{"far beyond extent", math.MaxInt32, 1, max},
		{"far beyond extent negative", math.MinInt32, 1, min},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fixedRangeValue(tt.d, tt.inv, 1920, min, mid, max); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFixedRangeValueTruncatesPerDelta(t *testing.T) {
	// 32767/1081 = 30 (小数部は捨てる)
	if got := fixedRangeValue(541, 1, 1081, 0, 16384, 32767); got != 16384+541*30 {
		t.Errorf("got %d, want %d", got, 16384+541*30)
	}
	// 範囲より広い矩形では 1 ピクセルあたりの軸量が 0 になる
	if got := fixedRangeValue(50, 1, 300, -100, 0, 100); got != 0 {
		t.Errorf("got %d, want mid", got)
	}
}

func TestFixedRangeValueSaturatesFromExtentOnward(t *testing.T) {
	for _, extent := range []int{1, 7, 1080, 1920, 32767} {
		if got := fixedRangeValue(extent, 1, extent, 0, 16384, 32767); got != 32767 {
			t.Errorf("extent %d: d=extent gave %d, want max", extent, got)
		}
		if got := fixedRangeValue(-extent, 1, extent, 0, 16384, 32767); got != 0 {
			t.Errorf("extent %d: d=-extent gave %d, want min", extent, got)
		}
	}
}

func TestFixedRangeValueZeroExtent(t *testing.T) {
	if got := fixedRangeValue(1, 1, 0, -10, 0, 10); got != 0 {
		t.Errorf("got %d, want mid", got)
	}
}

func TestActiveRect(t *testing.T) {
	display := screen.Rect{Left: 100, Top: 20, Right: 2020, Bottom: 1100}

	if got := activeRect(display, true, 800, 600); got != display {
		t.Errorf("auto size = %+v", got)
	}
	want := screen.Rect{Left: 100, Top: 20, Right: 900, Bottom: 620}
	if got := activeRect(display, false, 800, 600); got != want {
		t.Errorf("manual size = %+v, want %+v", got, want)
	}
}
