package features

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/holoplot/go-evdev"

	"github.com/char5742/mouse2joystick/internal/hook"
	"github.com/char5742/mouse2joystick/internal/screen"
)

var mouseButtons = map[evdev.EvCode]hook.Button{
	evdev.BTN_LEFT:   hook.ButtonLeft,
	evdev.BTN_RIGHT:  hook.ButtonRight,
	evdev.BTN_MIDDLE: hook.ButtonMiddle,
	evdev.BTN_SIDE:   hook.ButtonBack,
	evdev.BTN_EXTRA:  hook.ButtonForward,
}

// EvdevHook は evdev デバイスからの入力を hook.Handler に配送する
// マウスは専有し、消費されなかったイベントだけをパススルー用の仮想ポインタに流す
type EvdevHook struct {
	dispatcher hook.Dispatcher

	mouse     Mouse
	keyboards []Keyboard
	pass      Passthrough
	cursor    *cursorTracker

	modMu sync.Mutex
	mods  hook.Modifiers

	wg        sync.WaitGroup
	mouseDone chan struct{}
	closeOnce sync.Once
}

// NewEvdevHook は入力フックを作成する。pass が nil の場合マウスは専有しない
func NewEvdevHook(mouse Mouse, keyboards []Keyboard, pass Passthrough, display screen.Provider, filter *MotionFilter) *EvdevHook {
	h := &EvdevHook{
		mouse:     mouse,
		keyboards: keyboards,
		pass:      pass,
		cursor:    newCursorTracker(display, filter),
		mouseDone: make(chan struct{}),
	}
	for _, kb := range keyboards {
		h.mods |= kb.Modifiers()
	}
	return h
}

func (h *EvdevHook) Subscribe(handler hook.Handler)   { h.dispatcher.Subscribe(handler) }
func (h *EvdevHook) Unsubscribe(handler hook.Handler) { h.dispatcher.Unsubscribe(handler) }

// Start はマウスを専有し、読み取りゴルーチンを起動する
func (h *EvdevHook) Start() error {
	if h.pass != nil {
		if err := h.mouse.Grab(); err != nil {
			return err
		}
	} else {
		log.Println("パススルー用の仮想ポインタがないため、マウスを専有せずに監視します")
	}

	h.wg.Add(1 + len(h.keyboards))
	go h.readMouse()
	for _, kb := range h.keyboards {
		go h.readKeyboard(kb)
	}
	return nil
}

// MouseDone はマウスの読み取りが終了すると閉じられる
func (h *EvdevHook) MouseDone() <-chan struct{} {
	return h.mouseDone
}

// Close は専有を解除し、全デバイスを閉じて読み取りの終了を待つ
func (h *EvdevHook) Close() error {
	var errs []error
	h.closeOnce.Do(func() {
		errs = append(errs, h.mouse.Close())
		for _, kb := range h.keyboards {
			errs = append(errs, kb.Close())
		}
		h.wg.Wait()
		if h.pass != nil {
			errs = append(errs, h.pass.Close())
		}
	})
	return errors.Join(errs...)
}

func (h *EvdevHook) readMouse() {
	defer h.wg.Done()
	defer close(h.mouseDone)

	for {
		ev, err := h.mouse.ReadOne()
		if err != nil {
			log.Printf("マウスの読み取りを終了します: %v", err)
			return
		}
		out := h.cursor.feed(ev, &h.dispatcher)
		if h.pass == nil || len(out) == 0 {
			continue
		}
		if err := h.pass.Emit(out); err != nil {
			log.Printf("パススルーの書き込みに失敗しました: %v", err)
		}
	}
}

func (h *EvdevHook) readKeyboard(kb Keyboard) {
	defer h.wg.Done()

	for {
		ev, err := kb.ReadOne()
		if err != nil {
			log.Printf("キーボードの読み取りを終了します: %v", err)
			return
		}
		if ke := h.keyEvent(ev); ke != nil {
			h.dispatcher.OnKeyDown(ke)
		}
	}
}

// keyEvent は修飾キーの状態を更新し、キー押下なら KeyEvent を返す
func (h *EvdevHook) keyEvent(ev *evdev.InputEvent) *hook.KeyEvent {
	if ev.Type != evdev.EV_KEY {
		return nil
	}

	mod := hook.ModifierFor(ev.Code)
	h.modMu.Lock()
	defer h.modMu.Unlock()

	switch ev.Value {
	case 1:
		ke := &hook.KeyEvent{
			Event:     hook.Event{Timestamp: eventTime(ev)},
			Key:       ev.Code,
			Modifiers: h.mods,
		}
		h.mods |= mod
		return ke
	case 0:
		h.mods &^= mod
	}
	// 2 はキーリピート
	return nil
}

func eventTime(ev *evdev.InputEvent) time.Time {
	return time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000)
}

type buttonChange struct {
	raw    *evdev.InputEvent
	button hook.Button
	down   bool
}

// cursorTracker は SYN_REPORT までの相対イベントをまとめ、画面内の絶対カーソル位置に積算する
type cursorTracker struct {
	display screen.Provider
	filter  *MotionFilter
	x, y    int

	dx, dy  int
	wheel   int
	buttons []buttonChange
	other   []*evdev.InputEvent
}

func newCursorTracker(display screen.Provider, filter *MotionFilter) *cursorTracker {
	t := &cursorTracker{display: display, filter: filter}
	t.x, t.y = display.Bounds().Center()
	return t
}

// feed はイベントを1つ処理する。SYN_REPORT でフレームを配送し、
// 消費されなかった元イベントを返す
func (t *cursorTracker) feed(ev *evdev.InputEvent, h hook.Handler) []*evdev.InputEvent {
	switch ev.Type {
	case evdev.EV_SYN:
		if ev.Code == evdev.SYN_REPORT {
			return t.flush(eventTime(ev), h)
		}
	case evdev.EV_REL:
		switch ev.Code {
		case evdev.REL_X:
			t.dx += int(ev.Value)
		case evdev.REL_Y:
			t.dy += int(ev.Value)
		case evdev.REL_WHEEL:
			t.wheel += int(ev.Value)
		case evdev.REL_HWHEEL:
			t.other = append(t.other, ev)
		}
	case evdev.EV_KEY:
		if b, ok := mouseButtons[ev.Code]; ok {
			if ev.Value == 0 || ev.Value == 1 {
				t.buttons = append(t.buttons, buttonChange{raw: ev, button: b, down: ev.Value == 1})
			}
		} else {
			t.other = append(t.other, ev)
		}
	}
	return nil
}

func (t *cursorTracker) flush(ts time.Time, h hook.Handler) []*evdev.InputEvent {
	var out []*evdev.InputEvent

	if t.dx != 0 || t.dy != 0 {
		dx, dy := t.dx, t.dy
		if t.filter != nil {
			dx, dy = t.filter.Filter(dx, dy)
		}
		t.x, t.y = t.display.Bounds().Clamp(t.x+dx, t.y+dy)

		me := &hook.MoveEvent{Event: hook.Event{Timestamp: ts}, X: t.x, Y: t.y}
		h.OnMove(me)
		if !me.Consumed {
			if t.dx != 0 {
				out = append(out, &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_X, Value: int32(t.dx)})
			}
			if t.dy != 0 {
				out = append(out, &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_Y, Value: int32(t.dy)})
			}
		}
	}

	for _, bc := range t.buttons {
		be := &hook.ButtonEvent{Event: hook.Event{Timestamp: ts}, Button: bc.button, X: t.x, Y: t.y}
		if bc.down {
			h.OnButtonDown(be)
		} else {
			h.OnButtonUp(be)
		}
		if !be.Consumed {
			out = append(out, bc.raw)
		}
	}

	if t.wheel != 0 {
		we := &hook.WheelEvent{Event: hook.Event{Timestamp: ts}, Delta: t.wheel, X: t.x, Y: t.y}
		h.OnWheel(we)
		if !we.Consumed {
			out = append(out, &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_WHEEL, Value: int32(t.wheel)})
		}
	}

	out = append(out, t.other...)

	t.dx, t.dy, t.wheel = 0, 0, 0
	t.buttons = t.buttons[:0]
	t.other = nil
	return out
}
