// Package engine はマウス・キーボード入力を仮想ジョイスティックの出力に変換する
package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/char5742/mouse2joystick/internal/hook"
	"github.com/char5742/mouse2joystick/internal/scheduler"
	"github.com/char5742/mouse2joystick/internal/screen"
	"github.com/char5742/mouse2joystick/internal/vjoy"
)

// Stick はマウス移動を書き込むスティック
type Stick int

const (
	StickLeft Stick = iota
	StickRight
)

func (s Stick) String() string {
	if s == StickRight {
		return "right"
	}
	return "left"
}

func (s Stick) axes() (vjoy.Axis, vjoy.Axis) {
	if s == StickRight {
		return vjoy.AxisRX, vjoy.AxisRY
	}
	return vjoy.AxisX, vjoy.AxisY
}

// ParseStick は "left" / "right" を Stick に変換する
func ParseStick(name string) (Stick, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left", "":
		return StickLeft, nil
	case "right":
		return StickRight, nil
	}
	return StickLeft, fmt.Errorf("unknown stick: %q", name)
}

// Options はエンジン構築時に一度だけ読み込まれる設定
type Options struct {
	DeviceID     uint
	InvertX      bool
	InvertY      bool
	AutoCenter   bool
	AutoSize     bool
	ManualWidth  int
	ManualHeight int

	Stick             Stick
	SuppressByDefault bool
	ToggleChord       hook.Chord
	WheelDebounce     time.Duration
	// 抑止中でも消費しないボタン
	Exempt []hook.Button
}

// DefaultOptions はデフォルト設定を返す
func DefaultOptions() Options {
	chord, _ := hook.ParseChord("Ctrl+Alt+Z")
	return Options{
		DeviceID:          1,
		AutoCenter:        true,
		AutoSize:          true,
		ManualWidth:       1920,
		ManualHeight:      1080,
		Stick:             StickLeft,
		SuppressByDefault: true,
		ToggleChord:       chord,
		WheelDebounce:     333 * time.Millisecond,
		Exempt:            []hook.Button{hook.ButtonLeft},
	}
}

// Engine は入力イベントを受け取り、仮想ジョイスティックへ書き込む
// 1つのエンジンが1つのセッションと1つのスケジューラを専有する
type Engine struct {
	opts   Options
	source hook.Source
	screen screen.Provider

	session *vjoy.Session
	looper  *scheduler.Looper

	invX   int
	invY   int
	exempt map[hook.Button]bool

	mu       sync.Mutex
	state    State
	lastX    int
	lastY    int
	haveLast bool

	closeOnce sync.Once
}

// New は仮想デバイスを専有し、スケジューラを起動してから入力を購読する
func New(source hook.Source, driver vjoy.Driver, display screen.Provider, opts Options, sessionOpts ...vjoy.Option) (*Engine, error) {
	if opts.WheelDebounce <= 0 {
		opts.WheelDebounce = DefaultOptions().WheelDebounce
	}

	session, err := vjoy.Open(driver, opts.DeviceID, sessionOpts...)
	if err != nil {
		return nil, fmt.Errorf("仮想ジョイスティックを開けませんでした: %w", err)
	}

	e := &Engine{
		opts:    opts,
		source:  source,
		screen:  display,
		session: session,
		looper:  scheduler.New(),
		invX:    sign(opts.InvertX),
		invY:    sign(opts.InvertY),
		exempt:  make(map[hook.Button]bool, len(opts.Exempt)),
		state:   State{Suppressed: opts.SuppressByDefault},
	}
	for _, b := range opts.Exempt {
		e.exempt[b] = true
	}

	source.Subscribe(e)
	log.Printf("入力変換を開始しました (stick=%s auto_center=%v auto_size=%v suppressed=%v)",
		opts.Stick, opts.AutoCenter, opts.AutoSize, e.state.Suppressed)
	return e, nil
}

func sign(invert bool) int {
	if invert {
		return -1
	}
	return 1
}

// Close は購読解除、スケジューラ停止、デバイス解放の順に後始末する
// 複数回、任意のゴルーチンから呼び出しても安全
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.source.Unsubscribe(e)
		e.looper.Dispose()
		err = e.session.Close()
		log.Println("入力変換を停止しました")
	})
	return err
}

// State は現在の状態を返す
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Output は仮想ジョイスティックの現在の出力を返す
func (e *Engine) Output() vjoy.Output {
	return e.session.Output()
}

func (e *Engine) suppressed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Suppressed
}

func (e *Engine) OnKeyDown(ev *hook.KeyEvent) {
	if !e.opts.ToggleChord.Matches(ev) {
		return
	}

	e.mu.Lock()
	e.state = e.state.ToggleSuppressed()
	suppressed := e.state.Suppressed
	e.mu.Unlock()

	log.Printf("パススルー抑止を切り替えました: %v", suppressed)
}

func (e *Engine) OnButtonDown(ev *hook.ButtonEvent) {
	e.handleButton(ev, true)
}

func (e *Engine) OnButtonUp(ev *hook.ButtonEvent) {
	e.handleButton(ev, false)
}

func (e *Engine) handleButton(ev *hook.ButtonEvent, down bool) {
	target, ok := ButtonMapping[ev.Button]
	if !ok {
		return
	}
	if e.suppressed() && !e.exempt[ev.Button] {
		ev.Consume()
	}

	if target.IsAxis {
		value := int64(e.session.Min())
		if down {
			value = int64(e.session.Max())
		}
		e.report(e.session.SetAxis(target.Axis, value))
		return
	}
	e.report(e.session.SetButton(target.Button, down))
}

func (e *Engine) OnWheel(ev *hook.WheelEvent) {
	if ev.Delta == 0 {
		return
	}
	dir := WheelPull
	if ev.Delta < 0 {
		dir = WheelPush
	}

	e.mu.Lock()
	if e.state.Suppressed {
		ev.Consume()
	}
	next, armed := e.state.Arm(dir)
	e.state = next
	e.mu.Unlock()

	// 同じ方向のパルスはデバウンス中は無視する
	if !armed {
		return
	}

	button := WheelMapping[dir]
	e.report(e.session.SetButton(button, true))
	e.looper.PostDelayed(func() { e.releaseWheel(dir) }, e.opts.WheelDebounce)
}

func (e *Engine) releaseWheel(dir WheelDirection) {
	e.mu.Lock()
	next, released := e.state.Disarm(dir)
	e.state = next
	e.mu.Unlock()

	if released {
		e.report(e.session.SetButton(WheelMapping[dir], false))
	}
}

func (e *Engine) OnMove(ev *hook.MoveEvent) {
	rect := activeRect(e.screen.Bounds(), e.opts.AutoSize, e.opts.ManualWidth, e.opts.ManualHeight)

	e.mu.Lock()
	if e.state.Suppressed {
		ev.Consume()
	}
	if !e.haveLast {
		// 最初のサンプルは基準点の記録のみ
		e.lastX, e.lastY = ev.X, ev.Y
		e.haveLast = true
		e.mu.Unlock()
		return
	}

	if !e.opts.AutoCenter && (rect.Width() <= 0 || rect.Height() <= 0) {
		e.mu.Unlock()
		return
	}

	dx := ev.X - e.lastX
	dy := ev.Y - e.lastY
	cx, cy := rect.Center()
	if e.opts.AutoCenter {
		e.lastX, e.lastY = rect.Clamp(ev.X, ev.Y)
	} else {
		e.lastX, e.lastY = cx, cy
	}
	e.mu.Unlock()

	min, mid, max := e.session.Min(), e.session.Mid(), e.session.Max()
	var xOut, yOut int32
	if e.opts.AutoCenter {
		xOut = autoCenterValue(dx, e.invX, min, mid, max)
		yOut = autoCenterValue(dy, e.invY, min, mid, max)
	} else {
		xOut = fixedRangeValue(dx, e.invX, rect.Width(), min, mid, max)
		yOut = fixedRangeValue(dy, e.invY, rect.Height(), min, mid, max)
	}

	xAxis, yAxis := e.opts.Stick.axes()
	e.report(e.session.SetAxis(xAxis, int64(xOut)))
	e.report(e.session.SetAxis(yAxis, int64(yOut)))
}

// report は書き込み失敗をログに残す。状態は変更しない
func (e *Engine) report(err error) {
	if err == nil || errors.Is(err, vjoy.ErrClosed) {
		return
	}
	log.Printf("仮想ジョイスティックへの書き込みに失敗しました: %v", err)
}
