// Package hook はグローバル入力フックとの契約 (イベントの形と購読インターフェース) を定義する
package hook

import (
	"fmt"
	"strings"
	"time"

	"github.com/holoplot/go-evdev"
)

// Button はマウスボタン
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonBack    // サイドボタン (戻る)
	ButtonForward // サイドボタン (進む)
)

var buttonNames = map[Button]string{
	ButtonLeft:    "left",
	ButtonRight:   "right",
	ButtonMiddle:  "middle",
	ButtonBack:    "back",
	ButtonForward: "forward",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// ParseButton はボタン名 ("left", "back" など) を Button に変換する
func ParseButton(name string) (Button, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for b, n := range buttonNames {
		if n == name {
			return b, nil
		}
	}
	return ButtonNone, fmt.Errorf("unknown mouse button: %q", name)
}

// Modifiers は修飾キーの押下状態
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// ModifierFor はキーコードに対応する修飾キーを返す。修飾キーでなければ 0
func ModifierFor(code evdev.EvCode) Modifiers {
	switch code {
	case evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTCTRL:
		return ModCtrl
	case evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT:
		return ModAlt
	case evdev.KEY_LEFTSHIFT, evdev.KEY_RIGHTSHIFT:
		return ModShift
	case evdev.KEY_LEFTMETA, evdev.KEY_RIGHTMETA:
		return ModMeta
	}
	return 0
}

// Event は全イベント共通のフィールド
type Event struct {
	Timestamp time.Time
	// Consumed が立ったイベントは他のアプリケーションへ伝播しない
	Consumed bool
}

// Consume はイベントを消費済みにする
func (e *Event) Consume() {
	e.Consumed = true
}

// KeyEvent はキー押下イベント
type KeyEvent struct {
	Event
	Key       evdev.EvCode
	Modifiers Modifiers
}

// ButtonEvent はマウスボタンの押下・解放イベント
type ButtonEvent struct {
	Event
	Button Button
	X, Y   int
}

// WheelEvent はホイールイベント。Delta が正なら手前に引く方向 (pull)
type WheelEvent struct {
	Event
	Delta int
	X, Y  int
}

// MoveEvent はカーソル移動イベント。座標は画面上の絶対位置
type MoveEvent struct {
	Event
	X, Y int
}

// Handler は入力イベントを受け取る
// ハンドラは入力配送スレッド上で同期的に呼ばれるため、ブロックしてはならない
type Handler interface {
	OnKeyDown(e *KeyEvent)
	OnButtonDown(e *ButtonEvent)
	OnButtonUp(e *ButtonEvent)
	OnWheel(e *WheelEvent)
	OnMove(e *MoveEvent)
}

// Source は入力イベントの購読を提供する
type Source interface {
	Subscribe(h Handler)
	Unsubscribe(h Handler)
}
