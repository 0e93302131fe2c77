package features

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/char5742/mouse2joystick/internal/vjoy"
)

type fakeJoystick struct {
	mu      sync.Mutex
	axes    map[uint16]int32
	buttons map[uint8]bool
	closed  bool
}

func (f *fakeJoystick) SetAxis(code uint16, value int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.axes[code] = value
	return nil
}

func (f *fakeJoystick) SetButton(button uint8, pressed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttons[button] = pressed
	return nil
}

func (f *fakeJoystick) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestDriver(t *testing.T) (*UinputDriver, *[]*fakeJoystick) {
	t.Helper()
	dir := t.TempDir()
	uinput := filepath.Join(dir, "uinput")
	if err := os.WriteFile(uinput, nil, 0600); err != nil {
		t.Fatal(err)
	}

	var created []*fakeJoystick
	d := NewUinputDriver(uinput, "test joystick", 0, 32767, dir)
	d.create = func(path string, name []byte, min, max int32) (Joystick, error) {
		js := &fakeJoystick{axes: map[uint16]int32{}, buttons: map[uint8]bool{}}
		created = append(created, js)
		return js, nil
	}
	return d, &created
}

func TestUinputDriverEnabled(t *testing.T) {
	d, _ := newTestDriver(t)
	if !d.Enabled() {
		t.Error("writable device should be enabled")
	}

	missing := NewUinputDriver(filepath.Join(t.TempDir(), "nope"), "x", 0, 1, "")
	if missing.Enabled() {
		t.Error("missing device should be disabled")
	}
}

func TestUinputDriverStatus(t *testing.T) {
	d, _ := newTestDriver(t)

	for _, id := range []uint{0, MaxDeviceID + 1} {
		if got := d.Status(id); got != vjoy.StatusMissing {
			t.Errorf("Status(%d) = %s, want missing", id, got)
		}
	}
	if got := d.Status(1); got != vjoy.StatusFree {
		t.Errorf("Status(1) = %s, want free", got)
	}

	if err := d.Acquire(1); err != nil {
		t.Fatal(err)
	}
	if got := d.Status(1); got != vjoy.StatusOwned {
		t.Errorf("Status(1) after acquire = %s, want owned", got)
	}

	d.Relinquish(1)
	if got := d.Status(1); got != vjoy.StatusFree {
		t.Errorf("Status(1) after relinquish = %s, want free", got)
	}
}

func TestUinputDriverBusyWhenLockedElsewhere(t *testing.T) {
	d, created := newTestDriver(t)

	// 別のオープンファイル記述からロックを保持する
	f, err := os.OpenFile(d.lockPath(2), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Fatal(err)
	}

	if got := d.Status(2); got != vjoy.StatusBusy {
		t.Errorf("Status(2) = %s, want busy", got)
	}
	if err := d.Acquire(2); !errors.Is(err, vjoy.ErrDeviceBusy) {
		t.Errorf("Acquire(2) = %v, want ErrDeviceBusy", err)
	}
	if len(*created) != 0 {
		t.Error("no device should be created while busy")
	}
}

func TestUinputDriverSession(t *testing.T) {
	d, created := newTestDriver(t)

	s, err := vjoy.Open(d, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(*created) != 1 {
		t.Fatalf("created %d devices", len(*created))
	}
	js := (*created)[0]

	if err := s.SetButton(vjoy.ButtonA, true); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAxis(vjoy.AxisRX, 100); err != nil {
		t.Fatal(err)
	}

	js.mu.Lock()
	if !js.buttons[vjoy.ButtonA] || js.axes[uint16(vjoy.AxisRX)] != 100 {
		t.Errorf("writes not forwarded: buttons=%v axes=%v", js.buttons, js.axes)
	}
	if js.axes[uint16(vjoy.AxisZ)] != 0 || js.axes[uint16(vjoy.AxisX)] != 16384 {
		t.Errorf("reset/init values wrong: %v", js.axes)
	}
	js.mu.Unlock()

	s.Close()
	if !js.closed {
		t.Error("device should be destroyed on close")
	}
	if err := d.SetAxis(3, vjoy.AxisX, 1); err == nil {
		t.Error("writes to a relinquished device should fail")
	}
}
