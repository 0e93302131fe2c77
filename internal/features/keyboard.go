package features

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/char5742/mouse2joystick/internal/hook"
)

// キーボードからの入力を処理するインターフェース
type Keyboard interface {
	ReadOne() (*evdev.InputEvent, error)
	// 開いた時点で押されていた修飾キー
	Modifiers() hook.Modifiers
	Close() error
}

type physicalKeyboard struct {
	dev       *evdev.InputDevice
	modifiers hook.Modifiers
}

// 監視するデバイスのパスを指定してキーボードを開く。専有はしない
func CreateKeyboard(path string) (Keyboard, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("デバイスファイルを開くのに失敗しました: %w", err)
	}

	var mods hook.Modifiers
	if keys, err := getPressedKeys(path); err == nil {
		for _, code := range keys {
			mods |= hook.ModifierFor(evdev.EvCode(code))
		}
	}
	return &physicalKeyboard{dev: dev, modifiers: mods}, nil
}

func (k *physicalKeyboard) ReadOne() (*evdev.InputEvent, error) {
	return k.dev.ReadOne()
}

func (k *physicalKeyboard) Modifiers() hook.Modifiers {
	return k.modifiers
}

func (k *physicalKeyboard) Close() error {
	return k.dev.Close()
}

// getPressedKeys は EVIOCGKEY で現在押されているキーを取得する
func getPressedKeys(path string) ([]int, error) {
	const (
		keyMax    = 0x2ff
		eviocgkey = 0x80604518 // EVIOCGKEY(96)
	)

	file, err := os.OpenFile(path, syscall.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	keyBits := make([]byte, (keyMax/8)+1)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		file.Fd(),
		uintptr(eviocgkey),
		uintptr(unsafe.Pointer(&keyBits[0])),
	)
	if errno != 0 {
		return nil, errno
	}

	var pressed []int
	for keyCode := 0; keyCode < keyMax; keyCode++ {
		if keyBits[keyCode/8]&(1<<(keyCode%8)) != 0 {
			pressed = append(pressed, keyCode)
		}
	}
	return pressed, nil
}
