package features

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/char5742/mouse2joystick/internal/vjoy"
)

// MaxDeviceID は UinputDriver が扱うデバイス番号の上限
const MaxDeviceID = 16

// UinputDriver は uinput 上の仮想ジョイスティックを vjoy.Driver として扱う
// デバイス番号ごとのロックファイルでプロセス間の専有を管理する
type UinputDriver struct {
	path    string
	name    string
	lockDir string
	min     int32
	max     int32

	mu      sync.Mutex
	devices map[uint]*ownedJoystick
	create  func(path string, name []byte, min, max int32) (Joystick, error)
}

type ownedJoystick struct {
	joystick Joystick
	lock     *os.File
}

// NewUinputDriver は新しい UinputDriver を作成する
func NewUinputDriver(path, name string, min, max int32, lockDir string) *UinputDriver {
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	return &UinputDriver{
		path:    path,
		name:    name,
		lockDir: lockDir,
		min:     min,
		max:     max,
		devices: make(map[uint]*ownedJoystick),
		create:  CreateJoystick,
	}
}

func (d *UinputDriver) lockPath(id uint) string {
	return filepath.Join(d.lockDir, fmt.Sprintf("mouse2joystick-%d.lock", id))
}

// Enabled は uinput デバイスに書き込めるかを返す
func (d *UinputDriver) Enabled() bool {
	return unix.Access(d.path, unix.W_OK) == nil
}

func (d *UinputDriver) Status(id uint) vjoy.Status {
	if id == 0 || id > MaxDeviceID {
		return vjoy.StatusMissing
	}

	d.mu.Lock()
	_, owned := d.devices[id]
	d.mu.Unlock()
	if owned {
		return vjoy.StatusOwned
	}

	lock, err := d.tryLock(id)
	if errors.Is(err, vjoy.ErrDeviceBusy) {
		return vjoy.StatusBusy
	}
	if err != nil {
		log.Printf("ロックファイルの確認に失敗しました: %v", err)
		return vjoy.StatusError
	}
	unlock(lock)
	return vjoy.StatusFree
}

// tryLock はロックファイルを排他ロックする。他プロセスが保持していれば ErrDeviceBusy
func (d *UinputDriver) tryLock(id uint) (*os.File, error) {
	f, err := os.OpenFile(d.lockPath(id), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, vjoy.ErrDeviceBusy
		}
		return nil, err
	}
	return f, nil
}

func unlock(f *os.File) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	_ = f.Close()
}

func (d *UinputDriver) Acquire(id uint) error {
	if id == 0 || id > MaxDeviceID {
		return vjoy.ErrDeviceMissing
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, owned := d.devices[id]; owned {
		return nil
	}

	lock, err := d.tryLock(id)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s #%d", d.name, id)
	js, err := d.create(d.path, []byte(name), d.min, d.max)
	if err != nil {
		unlock(lock)
		return err
	}

	d.devices[id] = &ownedJoystick{joystick: js, lock: lock}
	return nil
}

func (d *UinputDriver) owned(id uint) (Joystick, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.devices[id]
	if !ok {
		return nil, fmt.Errorf("デバイス #%d は専有されていません", id)
	}
	return dev.joystick, nil
}

// Reset は全ボタンを離し、スティックを中央、トリガーを最小値にする
func (d *UinputDriver) Reset(id uint) error {
	js, err := d.owned(id)
	if err != nil {
		return err
	}
	for b := 1; b <= vjoy.MaxButtons; b++ {
		if err := js.SetButton(uint8(b), false); err != nil {
			return err
		}
	}
	mid := vjoy.Midpoint(d.min, d.max)
	for axis := vjoy.AxisX; axis < vjoy.AxisCount; axis++ {
		value := mid
		if axis.IsTrigger() {
			value = d.min
		}
		if err := js.SetAxis(uint16(axis), value); err != nil {
			return err
		}
	}
	return nil
}

// AxisRange は全軸共通の範囲を返す
func (d *UinputDriver) AxisRange(id uint, axis vjoy.Axis) (int32, int32, error) {
	if axis >= vjoy.AxisCount {
		return 0, 0, fmt.Errorf("unknown axis %d", axis)
	}
	return d.min, d.max, nil
}

// SetAxis は軸の値を書き込む。vjoy.Axis の並びは ABS_X..ABS_RZ のコードと一致する
func (d *UinputDriver) SetAxis(id uint, axis vjoy.Axis, value int32) error {
	js, err := d.owned(id)
	if err != nil {
		return err
	}
	return js.SetAxis(uint16(axis), value)
}

func (d *UinputDriver) SetButton(id uint, button uint8, pressed bool) error {
	js, err := d.owned(id)
	if err != nil {
		return err
	}
	return js.SetButton(button, pressed)
}

// Relinquish は仮想デバイスを破棄し、ロックを解放する
func (d *UinputDriver) Relinquish(id uint) {
	d.mu.Lock()
	dev, ok := d.devices[id]
	delete(d.devices, id)
	d.mu.Unlock()
	if !ok {
		return
	}

	if err := dev.joystick.Close(); err != nil {
		log.Printf("仮想ジョイスティックの破棄に失敗しました: %v", err)
	}
	unlock(dev.lock)
}
