package features

import (
	"fmt"

	"github.com/holoplot/go-evdev"
)

// マウス入力を扱うインターフェース
type Mouse interface {
	// 次のイベントを読み取る。デバイスが閉じられるとエラーを返す
	ReadOne() (*evdev.InputEvent, error)
	// マウス操作を専有する
	Grab() error
	// マウス操作の専有を解除する
	Release() error
	Close() error
}

type physicalMouse struct {
	dev     *evdev.InputDevice
	grabbed bool
}

// 指定されたパスのマウスを開く
func CreateMouse(path string) (Mouse, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device file: %w", err)
	}
	return &physicalMouse{dev: dev}, nil
}

func (m *physicalMouse) ReadOne() (*evdev.InputEvent, error) {
	return m.dev.ReadOne()
}

func (m *physicalMouse) Grab() error {
	if m.grabbed {
		return nil
	}
	if err := m.dev.Grab(); err != nil {
		return fmt.Errorf("failed to grab device: %w", err)
	}
	m.grabbed = true
	return nil
}

func (m *physicalMouse) Release() error {
	if !m.grabbed {
		return nil
	}
	if err := m.dev.Ungrab(); err != nil {
		return fmt.Errorf("failed to release device: %w", err)
	}
	m.grabbed = false
	return nil
}

func (m *physicalMouse) Close() error {
	_ = m.Release()
	return m.dev.Close()
}
