package screen

import "testing"

func TestRect(t *testing.T) {
	r := Rect{Left: 100, Top: 50, Right: 2020, Bottom: 1130}
	if r.Width() != 1920 || r.Height() != 1080 {
		t.Fatalf("size = %dx%d", r.Width(), r.Height())
	}

	cx, cy := r.Center()
	if cx != 1060 || cy != 590 {
		t.Errorf("Center() = %d,%d", cx, cy)
	}

	tests := []struct {
		x, y, wantX, wantY int
	}{
		{500, 500, 500, 500},
		{-10, -10, 100, 50},
		{5000, 5000, 2020, 1130},
	}
	for _, tt := range tests {
		x, y := r.Clamp(tt.x, tt.y)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("Clamp(%d,%d) = %d,%d, want %d,%d", tt.x, tt.y, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestStatic(t *testing.T) {
	p := NewStatic(1920, 1080)
	if got := p.Bounds(); got != (Rect{Right: 1920, Bottom: 1080}) {
		t.Errorf("Bounds() = %+v", got)
	}
}
