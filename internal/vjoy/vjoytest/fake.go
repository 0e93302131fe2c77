// Package vjoytest はテスト用の vjoy.Driver 実装を提供する
package vjoytest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/char5742/mouse2joystick/internal/vjoy"
)

// ErrInjected はテストで注入した失敗
var ErrInjected = errors.New("injected failure")

// AxisWrite は記録された軸書き込み
type AxisWrite struct {
	Axis  vjoy.Axis
	Value int32
}

// ButtonWrite は記録されたボタン書き込み
type ButtonWrite struct {
	Button  uint8
	Pressed bool
}

// Driver は呼び出しを記録するフェイクドライバ
type Driver struct {
	mu sync.Mutex

	Disabled     bool
	DeviceStatus vjoy.Status
	Min, Max     int32

	FailAcquire   bool
	FailReset     bool
	FailAxisRange bool
	FailWrites    bool

	Calls        []string
	AxisWrites   []AxisWrite
	ButtonWrites []ButtonWrite
	Axes         map[vjoy.Axis]int32
	Buttons      map[uint8]bool
	Acquired     bool
}

// New は 0..32767 の範囲を持つ空きデバイスのフェイクを返す
func New() *Driver {
	return &Driver{
		DeviceStatus: vjoy.StatusFree,
		Min:          0,
		Max:          32767,
		Axes:         make(map[vjoy.Axis]int32),
		Buttons:      make(map[uint8]bool),
	}
}

func (d *Driver) record(call string) {
	d.Calls = append(d.Calls, call)
}

func (d *Driver) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("enabled")
	return !d.Disabled
}

func (d *Driver) Status(id uint) vjoy.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("status")
	return d.DeviceStatus
}

func (d *Driver) Acquire(id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("acquire")
	if d.FailAcquire {
		return ErrInjected
	}
	d.Acquired = true
	return nil
}

func (d *Driver) Reset(id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("reset")
	if d.FailReset {
		return ErrInjected
	}
	return nil
}

func (d *Driver) AxisRange(id uint, axis vjoy.Axis) (int32, int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("axis_range")
	if d.FailAxisRange {
		return 0, 0, ErrInjected
	}
	return d.Min, d.Max, nil
}

func (d *Driver) SetAxis(id uint, axis vjoy.Axis, value int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(fmt.Sprintf("set_axis:%s", axis))
	if d.FailWrites {
		return ErrInjected
	}
	d.AxisWrites = append(d.AxisWrites, AxisWrite{Axis: axis, Value: value})
	d.Axes[axis] = value
	return nil
}

func (d *Driver) SetButton(id uint, button uint8, pressed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(fmt.Sprintf("set_button:%d", button))
	if d.FailWrites {
		return ErrInjected
	}
	d.ButtonWrites = append(d.ButtonWrites, ButtonWrite{Button: button, Pressed: pressed})
	d.Buttons[button] = pressed
	return nil
}

func (d *Driver) Relinquish(id uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("relinquish")
	d.Acquired = false
}

// Axis は軸の最新値を返す
func (d *Driver) Axis(axis vjoy.Axis) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Axes[axis]
}

// Button はボタンの最新状態を返す
func (d *Driver) Button(button uint8) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Buttons[button]
}

// CallLog は呼び出し履歴のコピーを返す
func (d *Driver) CallLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.Calls...)
}

// AxisLog は軸書き込み履歴のコピーを返す
func (d *Driver) AxisLog() []AxisWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]AxisWrite(nil), d.AxisWrites...)
}

// ButtonLog はボタン書き込み履歴のコピーを返す
func (d *Driver) ButtonLog() []ButtonWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ButtonWrite(nil), d.ButtonWrites...)
}

// SetFailWrites は書き込み失敗の注入を切り替える
func (d *Driver) SetFailWrites(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.FailWrites = fail
}
