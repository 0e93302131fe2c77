package engine

import (
	"math"

	"github.com/char5742/mouse2joystick/internal/screen"
)

// autoCenterValue は自動センタリング時の応答曲線
// 変位が大きくなるほど感度が落ちる: mid + inv * round(d * (d * -1/1.1 + 500))
func autoCenterValue(d, inv int, min, mid, max int32) int32 {
	fd := float64(d)
	curve := math.RoundToEven(fd * (fd*(-1.0/1.1) + 500))
	return clampFloat(float64(mid)+float64(inv)*curve, min, max)
}

// fixedRangeValue は基準点からの変位を矩形全体の幅あたりの軸量で写す
// 幅あたりの軸量は整数で切り捨てる: mid + inv * d * ((max-min)/extent)
func fixedRangeValue(d, inv, extent int, min, mid, max int32) int32 {
	if extent <= 0 {
		return mid
	}

	// 2*extent を超える変位は必ず飽和するので、乗算前に丸めておく
	limit := 2 * int64(extent)
	dist := int64(d)
	if dist > limit {
		dist = limit
	} else if dist < -limit {
		dist = -limit
	}

	perDelta := (int64(max) - int64(min)) / int64(extent)
	v := int64(mid) + int64(inv)*dist*perDelta
	if v < int64(min) {
		return min
	}
	if v > int64(max) {
		return max
	}
	return int32(v)
}

func clampFloat(v float64, min, max int32) int32 {
	if math.IsNaN(v) || v < float64(min) {
		return min
	}
	if v > float64(max) {
		return max
	}
	return int32(v)
}

// activeRect は動き計算に使う矩形を返す
// autoSize でなければディスプレイ原点に固定した手動サイズの矩形
func activeRect(display screen.Rect, autoSize bool, width, height int) screen.Rect {
	if autoSize {
		return display
	}
	return screen.Rect{
		Left:   display.Left,
		Top:    display.Top,
		Right:  display.Left + width,
		Bottom: display.Top + height,
	}
}
