package features

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   Device
		ok     bool
	}{
		{
			name:   "usb-Keyball_Keyball44-event-kbd",
			target: "../event3",
			want:   Device{Name: "usb-Keyball_Keyball44-event-kbd", Path: "/dev/input/event3", Type: DeviceTypeKeyboard},
			ok:     true,
		},
		{
			name:   "usb-Logitech_G_Pro-event-mouse",
			target: "/dev/input/event7",
			want:   Device{Name: "usb-Logitech_G_Pro-event-mouse", Path: "/dev/input/event7", Type: DeviceTypeMouse},
			ok:     true,
		},
		{name: "usb-Logitech_G_Pro-mouse", target: "../mouse0"},
		{name: "usb-Some_Gamepad-event-joystick", target: "../event9"},
	}

	for _, tt := range tests {
		got, ok := classifyDevice(tt.name, "/dev/input/by-id", tt.target)
		if ok != tt.ok {
			t.Errorf("%s: ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestScanDevices(t *testing.T) {
	dir := t.TempDir()
	for name, target := range map[string]string{
		"usb-B_Mouse-event-mouse":  "../event5",
		"usb-A_Keyboard-event-kbd": "../event2",
		"usb-A_Keyboard-kbd":       "../input1",
	} {
		if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "not-a-link-event-kbd"), nil, 0600); err != nil {
		t.Fatal(err)
	}

	devices, err := ScanDevices(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices: %+v", len(devices), devices)
	}
	if devices[0].Name != "usb-A_Keyboard-event-kbd" || devices[0].Path != filepath.Join(filepath.Dir(dir), "event2") {
		t.Errorf("devices[0] = %+v", devices[0])
	}
	if devices[1].Type != DeviceTypeMouse {
		t.Errorf("devices[1] = %+v", devices[1])
	}

	if _, err := ScanDevices(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestSelectDevices(t *testing.T) {
	devices := []Device{
		{Name: "kbd-a", Path: "/dev/input/event1", Type: DeviceTypeKeyboard},
		{Name: "kbd-b", Path: "/dev/input/event2", Type: DeviceTypeKeyboard},
		{Name: "mouse-a", Path: "/dev/input/event3", Type: DeviceTypeMouse},
		{Name: "mouse-b", Path: "/dev/input/event4", Type: DeviceTypeMouse},
	}

	mouse, keyboards := SelectDevices(devices, nil)
	if mouse == nil || mouse.Name != "mouse-a" || len(keyboards) != 2 {
		t.Errorf("no prefs: mouse=%v keyboards=%v", mouse, keyboards)
	}

	mouse, keyboards = SelectDevices(devices, []string{"mouse-b", "kbd-b", "unplugged"})
	if mouse == nil || mouse.Name != "mouse-b" {
		t.Errorf("preferred mouse = %v", mouse)
	}
	if len(keyboards) != 1 || keyboards[0].Name != "kbd-b" {
		t.Errorf("preferred keyboards = %v", keyboards)
	}

	mouse, _ = SelectDevices(devices[:2], nil)
	if mouse != nil {
		t.Errorf("mouse = %v, want nil", mouse)
	}
}

func TestDeviceMonitorUpdate(t *testing.T) {
	dm, err := NewDeviceMonitor(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer dm.Stop()

	var mu sync.Mutex
	var events []DeviceEvent
	dm.RegisterCallback(func(ev DeviceEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	kbd := Device{Name: "kbd", Path: "/dev/input/event1", Type: DeviceTypeKeyboard}
	mouse := Device{Name: "mouse", Path: "/dev/input/event2", Type: DeviceTypeMouse}

	dm.updateDeviceList([]Device{kbd, mouse})
	dm.updateDeviceList([]Device{kbd, mouse})
	dm.updateDeviceList([]Device{kbd})

	if got := dm.GetConnectedDevices(); len(got) != 1 || got[0] != kbd {
		t.Errorf("connected = %+v", got)
	}
	if dm.has(mouse.Path) {
		t.Error("removed mouse still reported")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 {
		t.Fatalf("events = %+v", events)
	}
	last := events[2]
	if last.Type != DeviceRemoved || last.Device != mouse {
		t.Errorf("last event = %+v", last)
	}
}
