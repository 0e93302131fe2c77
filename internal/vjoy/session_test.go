package vjoy_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/char5742/mouse2joystick/internal/vjoy"
	"github.com/char5742/mouse2joystick/internal/vjoy/vjoytest"
)

func TestMidpoint(t *testing.T) {
	tests := []struct {
		min, max, want int32
	}{
		{0, 32767, 16384},
		{0, 32768, 16384},
		{1, 32767, 16384},
		{-32768, 32767, 0},
		{0, 1, 1},
	}

	for _, tt := range tests {
		if got := vjoy.Midpoint(tt.min, tt.max); got != tt.want {
			t.Errorf("Midpoint(%d, %d) = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestOpenInitializesAxes(t *testing.T) {
	drv := vjoytest.New()
	s, err := vjoy.Open(drv, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Mid() != 16384 {
		t.Errorf("Expected mid 16384, got %d", s.Mid())
	}
	for _, axis := range []vjoy.Axis{vjoy.AxisX, vjoy.AxisY, vjoy.AxisRX, vjoy.AxisRY} {
		if got := drv.Axis(axis); got != 16384 {
			t.Errorf("Expected stick axis %s at 16384, got %d", axis, got)
		}
	}
	for _, axis := range []vjoy.Axis{vjoy.AxisZ, vjoy.AxisRZ} {
		if got := drv.Axis(axis); got != 0 {
			t.Errorf("Expected trigger axis %s at 0, got %d", axis, got)
		}
	}

	calls := drv.CallLog()
	want := []string{"enabled", "status", "acquire", "reset", "axis_range"}
	if !slices.Equal(calls[:len(want)], want) {
		t.Errorf("Expected call order %v, got %v", want, calls[:len(want)])
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*vjoytest.Driver)
		want    error
		acquire bool // acquire が呼ばれるべきか
	}{
		{"disabled", func(d *vjoytest.Driver) { d.Disabled = true }, vjoy.ErrDriverDisabled, false},
		{"busy", func(d *vjoytest.Driver) { d.DeviceStatus = vjoy.StatusBusy }, vjoy.ErrDeviceBusy, false},
		{"missing", func(d *vjoytest.Driver) { d.DeviceStatus = vjoy.StatusMissing }, vjoy.ErrDeviceMissing, false},
		{"status error", func(d *vjoytest.Driver) { d.DeviceStatus = vjoy.StatusError }, vjoy.ErrDeviceError, false},
		{"acquire", func(d *vjoytest.Driver) { d.FailAcquire = true }, vjoy.ErrDeviceError, true},
		{"reset", func(d *vjoytest.Driver) { d.FailReset = true }, vjoy.ErrDeviceError, true},
		{"axis range", func(d *vjoytest.Driver) { d.FailAxisRange = true }, vjoy.ErrDeviceError, true},
		{"bad range", func(d *vjoytest.Driver) { d.Min, d.Max = 10, 10 }, vjoy.ErrDeviceError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := vjoytest.New()
			tt.setup(drv)

			s, err := vjoy.Open(drv, 1)
			if err == nil {
				s.Close()
				t.Fatal("Expected Open to fail")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if drv.Acquired {
				t.Error("Expected device not to be left acquired")
			}

			calls := drv.CallLog()
			if got := slices.Contains(calls, "acquire"); got != tt.acquire {
				t.Errorf("Expected acquire called=%v, calls=%v", tt.acquire, calls)
			}
			for _, c := range calls {
				if strings.HasPrefix(c, "set_") {
					t.Errorf("Expected no writes on failed Open, got %s", c)
				}
			}
		})
	}
}

func TestBusyDeviceTouchesNothing(t *testing.T) {
	drv := vjoytest.New()
	drv.DeviceStatus = vjoy.StatusBusy

	_, err := vjoy.Open(drv, 1)
	if !errors.Is(err, vjoy.ErrDeviceBusy) {
		t.Fatalf("Expected ErrDeviceBusy, got %v", err)
	}
	want := []string{"enabled", "status"}
	if calls := drv.CallLog(); !slices.Equal(calls, want) {
		t.Errorf("Expected calls %v, got %v", want, calls)
	}
}

func TestOwnedDeviceIsAccepted(t *testing.T) {
	drv := vjoytest.New()
	drv.DeviceStatus = vjoy.StatusOwned

	s, err := vjoy.Open(drv, 1)
	if err != nil {
		t.Fatalf("Expected owned device to open, got %v", err)
	}
	s.Close()
}

func TestSetAxisClamps(t *testing.T) {
	drv := vjoytest.New()
	s, err := vjoy.Open(drv, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	values := []int64{-1 << 40, -1, 0, 100, 32767, 32768, 1 << 40}
	for _, v := range values {
		if err := s.SetAxis(vjoy.AxisX, v); err != nil {
			t.Fatalf("SetAxis(%d) failed: %v", v, err)
		}
	}

	for _, w := range drv.AxisLog() {
		if w.Value < s.Min() || w.Value > s.Max() {
			t.Errorf("Axis write %d outside [%d, %d]", w.Value, s.Min(), s.Max())
		}
	}
	if got := drv.Axis(vjoy.AxisX); got != 32767 {
		t.Errorf("Expected last write clamped to 32767, got %d", got)
	}
}

func TestWriteFailureIsNonFatal(t *testing.T) {
	drv := vjoytest.New()
	s, err := vjoy.Open(drv, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	drv.SetFailWrites(true)
	if err := s.SetButton(vjoy.ButtonA, true); !errors.Is(err, vjoy.ErrWriteFailed) {
		t.Errorf("Expected ErrWriteFailed, got %v", err)
	}
	if got := s.Output().Buttons; len(got) != 0 {
		t.Errorf("Expected failed write not to change output, got %v", got)
	}

	drv.SetFailWrites(false)
	if err := s.SetButton(vjoy.ButtonA, true); err != nil {
		t.Errorf("Expected write to succeed again, got %v", err)
	}
}

func TestCloseIsIdempotentAndBlocksWrites(t *testing.T) {
	drv := vjoytest.New()
	var observed []vjoy.Output
	s, err := vjoy.Open(drv, 1, vjoy.WithObserver(func(o vjoy.Output) {
		observed = append(observed, o)
	}))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.SetButton(vjoy.ButtonY, true); err != nil {
		t.Fatalf("SetButton failed: %v", err)
	}
	last := observed[len(observed)-1]
	if !slices.Equal(last.Buttons, []uint8{vjoy.ButtonY}) {
		t.Errorf("Expected observer to see button %d, got %v", vjoy.ButtonY, last.Buttons)
	}

	s.Close()
	s.Close()

	relinquished := 0
	for _, c := range drv.CallLog() {
		if c == "relinquish" {
			relinquished++
		}
	}
	if relinquished != 1 {
		t.Errorf("Expected 1 relinquish, got %d", relinquished)
	}

	writes := len(drv.ButtonLog())
	if err := s.SetButton(vjoy.ButtonY, false); !errors.Is(err, vjoy.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := s.SetAxis(vjoy.AxisX, 0); !errors.Is(err, vjoy.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if got := len(drv.ButtonLog()); got != writes {
		t.Errorf("Expected no driver writes after Close, got %d new", got-writes)
	}
}
