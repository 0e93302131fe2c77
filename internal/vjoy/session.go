package vjoy

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// Output は最後に書き込みに成功した出力状態のスナップショット
type Output struct {
	DeviceID uint             `json:"device_id"`
	Axes     map[string]int32 `json:"axes"`
	Buttons  []uint8          `json:"buttons"` // 押下中のボタン番号
}

// Session は1台の仮想デバイスの専有期間を管理する
type Session struct {
	driver Driver
	id     uint

	min int32
	mid int32
	max int32

	mu       sync.Mutex
	closed   bool
	axes     [AxisCount]int32
	buttons  map[uint8]bool
	observer func(Output)
}

// Option はセッションの追加設定
type Option func(*Session)

// WithObserver は書き込み成功のたびに呼び出されるコールバックを設定する
// コールバックはブロックしてはならない
func WithObserver(fn func(Output)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// Midpoint は軸の中央値を返す。範囲が奇数の場合は最大値側に寄る
func Midpoint(min, max int32) int32 {
	return max - (max-min)/2
}

// Open は仮想デバイスを専有し、軸を中立位置に初期化したセッションを返す
func Open(driver Driver, id uint, opts ...Option) (*Session, error) {
	if !driver.Enabled() {
		return nil, ErrDriverDisabled
	}

	switch status := driver.Status(id); status {
	case StatusFree, StatusOwned:
	case StatusBusy:
		return nil, ErrDeviceBusy
	case StatusMissing:
		return nil, ErrDeviceMissing
	default:
		return nil, fmt.Errorf("%w: status=%s", ErrDeviceError, status)
	}

	if err := driver.Acquire(id); err != nil {
		return nil, fmt.Errorf("%w: デバイスの取得に失敗しました: %w", ErrDeviceError, err)
	}

	// ここから先の失敗ではデバイスを解放してから返す
	fail := func(step string, err error) (*Session, error) {
		driver.Relinquish(id)
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceError, step, err)
	}

	if err := driver.Reset(id); err != nil {
		return fail("デバイスのリセットに失敗しました", err)
	}

	min, max, err := driver.AxisRange(id, AxisX)
	if err != nil {
		return fail("軸範囲の取得に失敗しました", err)
	}
	if min >= max {
		return fail("軸範囲が不正です", fmt.Errorf("min=%d max=%d", min, max))
	}

	s := &Session{
		driver:  driver,
		id:      id,
		min:     min,
		mid:     Midpoint(min, max),
		max:     max,
		buttons: make(map[uint8]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	// スティックは中央、トリガーは最小値
	for axis := AxisX; axis < AxisCount; axis++ {
		value := s.mid
		if axis.IsTrigger() {
			value = s.min
		}
		if err := s.SetAxis(axis, int64(value)); err != nil {
			log.Printf("軸 %s の初期化に失敗しました: %v", axis, err)
		}
	}

	log.Printf("仮想ジョイスティック #%d を取得しました (min=%d mid=%d max=%d)", id, s.min, s.mid, s.max)
	return s, nil
}

func (s *Session) Min() int32 { return s.min }
func (s *Session) Mid() int32 { return s.mid }
func (s *Session) Max() int32 { return s.max }

// Clamp は値を軸範囲内に制限する
func (s *Session) Clamp(value int64) int32 {
	if value < int64(s.min) {
		return s.min
	}
	if value > int64(s.max) {
		return s.max
	}
	return int32(value)
}

// SetAxis は軸の値を範囲内に制限して書き込む
func (s *Session) SetAxis(axis Axis, value int64) error {
	if axis >= AxisCount {
		return fmt.Errorf("%w: unknown axis %d", ErrWriteFailed, axis)
	}
	v := s.Clamp(value)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := s.driver.SetAxis(s.id, axis, v); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: axis=%s value=%d: %w", ErrWriteFailed, axis, v, err)
	}
	s.axes[axis] = v
	out := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(out)
	return nil
}

// SetButton はボタンの押下状態を書き込む
func (s *Session) SetButton(button uint8, pressed bool) error {
	if button == 0 || button > MaxButtons {
		return fmt.Errorf("%w: unknown button %d", ErrWriteFailed, button)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := s.driver.SetButton(s.id, button, pressed); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: button=%d pressed=%v: %w", ErrWriteFailed, button, pressed, err)
	}
	if pressed {
		s.buttons[button] = true
	} else {
		delete(s.buttons, button)
	}
	out := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(out)
	return nil
}

// Output は現在の出力状態を返す
func (s *Session) Output() Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close はデバイスの専有を解除する。複数回呼び出しても安全
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.driver.Relinquish(s.id)
	log.Printf("仮想ジョイスティック #%d を解放しました", s.id)
	return nil
}

func (s *Session) snapshotLocked() Output {
	out := Output{
		DeviceID: s.id,
		Axes:     make(map[string]int32, AxisCount),
		Buttons:  make([]uint8, 0, len(s.buttons)),
	}
	for axis := AxisX; axis < AxisCount; axis++ {
		out.Axes[axis.String()] = s.axes[axis]
	}
	for b := range s.buttons {
		out.Buttons = append(out.Buttons, b)
	}
	sort.Slice(out.Buttons, func(i, j int) bool { return out.Buttons[i] < out.Buttons[j] })
	return out
}

func (s *Session) notify(out Output) {
	if s.observer != nil {
		s.observer(out)
	}
}
