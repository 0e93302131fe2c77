// Package screen はプライマリディスプレイの範囲を提供する
package screen

import (
	"log"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Rect は画面上の矩形。Right と Bottom はカーソルが到達できる右端・下端の座標
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Clamp は座標を矩形の内側 (Right, Bottom を含む) に収める
func (r Rect) Clamp(x, y int) (int, int) {
	return clampInt(x, r.Left, r.Right), clampInt(y, r.Top, r.Bottom)
}

// Center は矩形の中心座標を返す
func (r Rect) Center() (int, int) {
	return r.Left + r.Width()/2, r.Top + r.Height()/2
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Provider はプライマリディスプレイの範囲を返す
type Provider interface {
	Bounds() Rect
}

// Static は固定サイズの画面
type Static struct {
	Rect Rect
}

// NewStatic は原点から width x height の画面を返す
func NewStatic(width, height int) *Static {
	return &Static{Rect: Rect{Right: width, Bottom: height}}
}

func (s *Static) Bounds() Rect {
	return s.Rect
}

// NewX11 は X サーバに接続し、デフォルトスクリーンのサイズを一度だけ読み取る
func NewX11() (*Static, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	s := xproto.Setup(conn).DefaultScreen(conn)
	return NewStatic(int(s.WidthInPixels), int(s.HeightInPixels)), nil
}

// Detect は X11 から画面サイズを取得し、失敗した場合は指定サイズにフォールバックする
func Detect(width, height int) Provider {
	p, err := NewX11()
	if err != nil {
		log.Printf("X11 から画面サイズを取得できませんでした。設定値 %dx%d を使用します: %v", width, height, err)
		return NewStatic(width, height)
	}
	b := p.Bounds()
	log.Printf("画面サイズ: %dx%d", b.Width(), b.Height())
	return p
}
