package features

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/char5742/mouse2joystick/internal/consts"
	"github.com/char5742/mouse2joystick/internal/types"
	"github.com/char5742/mouse2joystick/internal/utils"
)

// 仮想ジョイスティックを表現するインターフェース
type Joystick interface {
	// 軸の値を書き込む (code は ABS_X..ABS_RZ)
	SetAxis(code uint16, value int32) error
	// ボタンの状態を書き込む (button は 1 始まり)
	SetButton(button uint8, pressed bool) error
	io.Closer
}

var joystickAxes = []int{
	consts.AbsX, consts.AbsY, consts.AbsZ,
	consts.AbsRX, consts.AbsRY, consts.AbsRZ,
}

type virtualJoystick struct {
	name       []byte
	deviceFile *os.File
}

// 新しい仮想ジョイスティックを作成する。全ての軸は min..max の範囲を持つ
func CreateJoystick(path string, name []byte, min int32, max int32) (Joystick, error) {
	fd, err := createJoystick(path, name, min, max)
	if err != nil {
		return nil, err
	}

	return &virtualJoystick{name: name, deviceFile: fd}, nil
}

func (vj *virtualJoystick) Close() error {
	_ = releaseDevice(vj.deviceFile)
	return vj.deviceFile.Close()
}

func createJoystick(path string, name []byte, min int32, max int32) (*os.File, error) {
	deviceFile, err := createDeviceFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not create joystick device: %w", err)
	}

	// キー入力イベント(EV_KEY)を登録する
	err = registerDevice(deviceFile, uintptr(consts.Key))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %w", err)
	}

	// ジョイスティックボタン (BTN_TRIGGER から連続した16個) を登録する
	for i := 0; i < consts.JoystickButton; i++ {
		code := consts.BtnTrigger + i
		if err = utils.IOCtl(deviceFile, consts.SetKeyBit, uintptr(code)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("ボタンの登録に失敗しました %#x: %w", code, err)
		}
	}

	// 絶対座標入力イベント(EV_ABS)を登録する
	err = registerDevice(deviceFile, uintptr(consts.Abs))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("絶対座標入力イベント(EV_ABS)の登録に失敗しました: %w", err)
	}

	var absMin [consts.AbsSize]int32
	var absMax [consts.AbsSize]int32
	for _, axis := range joystickAxes {
		if err = utils.IOCtl(deviceFile, consts.SetAbsBit, uintptr(axis)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("軸の登録に失敗しました %v: %w", axis, err)
		}
		absMin[axis] = min
		absMax[axis] = max
	}

	userDev := types.UserDev{
		Name: toUinputName(name),
		ID: types.InputID{
			Bustype: consts.BusVirtual,
			Vendor:  0x4711,
			Product: 0x0818,
			Version: 1,
		},
		Absmin: absMin,
		Absmax: absMax,
	}

	fd, err := createUsbDevice(deviceFile, userDev)
	if err != nil {
		return nil, fmt.Errorf("ジョイスティックデバイスの作成に失敗しました: %w", err)
	}

	return fd, nil
}

func (vj *virtualJoystick) SetAxis(code uint16, value int32) error {
	return writeEvents(vj.deviceFile, []types.Event{
		{Type: consts.Abs, Code: code, Value: value},
		{Type: consts.Syn, Code: consts.SynReport, Value: 0},
	})
}

func (vj *virtualJoystick) SetButton(button uint8, pressed bool) error {
	if button == 0 || int(button) > consts.JoystickButton {
		return fmt.Errorf("無効なボタン番号です: %d", button)
	}
	var value int32
	if pressed {
		value = 1
	}
	return writeEvents(vj.deviceFile, []types.Event{
		{Type: consts.Key, Code: uint16(consts.BtnTrigger + int(button) - 1), Value: value},
		{Type: consts.Syn, Code: consts.SynReport, Value: 0},
	})
}

// デバイスファイルを開く
func createDeviceFile(path string) (fd *os.File, err error) {
	deviceFile, err := os.OpenFile(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, errors.New("デバイスファイルを開くのに失敗しました")
	}
	return deviceFile, err
}

// デバイスを解放する
func releaseDevice(deviceFile *os.File) error {
	return utils.IOCtl(deviceFile, consts.DevDestroy, uintptr(0))
}

// イベントタイプを登録する
func registerDevice(deviceFile *os.File, evType uintptr) error {
	if err := utils.IOCtl(deviceFile, consts.SetEvBit, evType); err != nil {
		return fmt.Errorf("無効なファイルハンドルがutils.IOCtlから返されました: %w", err)
	}
	return nil
}

// uinput_user_dev を書き込んでデバイスを作成する
func createUsbDevice(deviceFile *os.File, dev types.UserDev) (fd *os.File, err error) {
	buf := new(bytes.Buffer)
	err = binary.Write(buf, binary.LittleEndian, dev)
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %w", err)
	}
	_, err = deviceFile.Write(buf.Bytes())
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %w", err)
	}

	err = utils.IOCtl(deviceFile, consts.DevCreate, uintptr(0))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイスの作成に失敗しました: %w", err)
	}

	return deviceFile, err
}

// イベントをまとめて書き込む
func writeEvents(deviceFile *os.File, events []types.Event) error {
	buf := new(bytes.Buffer)
	for _, ev := range events {
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %w", err)
		}
	}
	if _, err := deviceFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("イベントの書き込みに失敗しました: %w", err)
	}
	return nil
}

// 名前をuinput用の固定長配列に変換する
func toUinputName(name []byte) (uinputName [consts.MaxNameSize]byte) {
	copy(uinputName[:], name)
	return uinputName
}
