package engine

// WheelDirection はホイールの回転方向
type WheelDirection int

const (
	// WheelPull は手前に引く方向 (Delta > 0)
	WheelPull WheelDirection = iota
	// WheelPush は奥に押す方向 (Delta < 0)
	WheelPush
)

func (d WheelDirection) String() string {
	if d == WheelPull {
		return "pull"
	}
	return "push"
}

// State は変換エンジンの状態
// 入出力から切り離した値型で、遷移はすべて新しい State を返す
type State struct {
	Suppressed  bool `json:"suppressed"`
	WheelPulled bool `json:"wheel_pulled"`
	WheelPushed bool `json:"wheel_pushed"`
}

// ToggleSuppressed はパススルー抑止を反転する
func (s State) ToggleSuppressed() State {
	s.Suppressed = !s.Suppressed
	return s
}

// Armed はその方向のデバウンスフラグが立っているかを返す
func (s State) Armed(dir WheelDirection) bool {
	if dir == WheelPull {
		return s.WheelPulled
	}
	return s.WheelPushed
}

// Arm はデバウンスフラグを立てる。すでに立っていれば false を返し状態は変わらない
func (s State) Arm(dir WheelDirection) (State, bool) {
	if s.Armed(dir) {
		return s, false
	}
	return s.with(dir, true), true
}

// Disarm はデバウンスフラグを下ろす。立っていなければ false を返し状態は変わらない
func (s State) Disarm(dir WheelDirection) (State, bool) {
	if !s.Armed(dir) {
		return s, false
	}
	return s.with(dir, false), true
}

func (s State) with(dir WheelDirection, armed bool) State {
	if dir == WheelPull {
		s.WheelPulled = armed
	} else {
		s.WheelPushed = armed
	}
	return s
}
