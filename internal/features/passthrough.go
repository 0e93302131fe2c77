package features

import (
	"errors"
	"fmt"
	"io"

	"github.com/holoplot/go-evdev"

	"github.com/char5742/mouse2joystick/internal/consts"
)

// Passthrough は専有したマウスの代わりに、消費されなかった入力を OS に流す仮想ポインタ
type Passthrough interface {
	// イベントを書き込み、最後に SYN_REPORT を送る
	Emit(events []*evdev.InputEvent) error
	io.Closer
}

type virtualPointer struct {
	dev *evdev.InputDevice
}

// CreatePassthrough は相対移動・ホイール・5ボタンを持つ仮想ポインタを作成する
func CreatePassthrough(name string) (Passthrough, error) {
	dev, err := evdev.CreateDevice(name, evdev.InputID{
		BusType: consts.BusVirtual,
		Vendor:  0x4711,
		Product: 0x0819,
		Version: 1,
	}, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {
			evdev.BTN_LEFT,
			evdev.BTN_RIGHT,
			evdev.BTN_MIDDLE,
			evdev.BTN_SIDE,
			evdev.BTN_EXTRA,
		},
		evdev.EV_REL: {
			evdev.REL_X,
			evdev.REL_Y,
			evdev.REL_WHEEL,
			evdev.REL_HWHEEL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("パススルー用の仮想ポインタの作成に失敗しました: %w", err)
	}
	return &virtualPointer{dev: dev}, nil
}

func (p *virtualPointer) Emit(events []*evdev.InputEvent) error {
	if len(events) == 0 {
		return nil
	}
	var errs []error
	for _, ev := range events {
		errs = append(errs, p.dev.WriteOne(ev))
	}
	errs = append(errs, p.dev.WriteOne(&evdev.InputEvent{
		Type: evdev.EV_SYN,
		Code: evdev.SYN_REPORT,
	}))
	return errors.Join(errs...)
}

func (p *virtualPointer) Close() error {
	return p.dev.Close()
}
