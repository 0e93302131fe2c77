// Package vjoy は仮想ジョイスティックドライバとの契約と、1台の仮想デバイスを専有するセッションを提供する
package vjoy

import "fmt"

// Status は仮想デバイスの状態
type Status int

const (
	StatusFree    Status = iota // 未使用
	StatusOwned                 // このプロセスが専有済み
	StatusBusy                  // 他のフィーダーが専有中
	StatusMissing               // 未インストールまたは無効
	StatusError                 // その他のエラー
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusOwned:
		return "owned"
	case StatusBusy:
		return "busy"
	case StatusMissing:
		return "missing"
	default:
		return "error"
	}
}

// Axis はジョイスティックの軸
type Axis uint8

const (
	AxisX  Axis = iota // 左スティック X
	AxisY              // 左スティック Y
	AxisZ              // 左トリガー
	AxisRX             // 右スティック X
	AxisRY             // 右スティック Y
	AxisRZ             // 右トリガー
	AxisCount
)

var axisNames = [AxisCount]string{"x", "y", "z", "rx", "ry", "rz"}

func (a Axis) String() string {
	if a < AxisCount {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// IsTrigger はトリガー軸かどうかを返す
func (a Axis) IsTrigger() bool {
	return a == AxisZ || a == AxisRZ
}

// Xbox コントローラー配置でのボタン番号 (1始まり)
const (
	ButtonA       uint8 = 1
	ButtonB       uint8 = 2
	ButtonX       uint8 = 3
	ButtonY       uint8 = 4
	ButtonLS      uint8 = 5 // 左スティック押し込み
	ButtonRS      uint8 = 6 // 右スティック押し込み
	ButtonLB      uint8 = 7
	ButtonRB      uint8 = 8
	ButtonView    uint8 = 9
	ButtonMenu    uint8 = 10
	ButtonXbox    uint8 = 11
	ButtonProfile uint8 = 12

	MaxButtons = 16
)

// Driver は仮想ジョイスティックドライバとのやり取りを表すインターフェース
type Driver interface {
	// ドライバが有効かどうか
	Enabled() bool
	// デバイスの状態を取得する
	Status(id uint) Status
	// デバイスを専有する
	Acquire(id uint) error
	// デバイスを初期状態に戻す
	Reset(id uint) error
	// 軸の最小値と最大値を取得する
	AxisRange(id uint, axis Axis) (min, max int32, err error)
	SetAxis(id uint, axis Axis, value int32) error
	SetButton(id uint, button uint8, pressed bool) error
	// デバイスの専有を解除する
	Relinquish(id uint)
}
