package engine

import (
	"github.com/char5742/mouse2joystick/internal/hook"
	"github.com/char5742/mouse2joystick/internal/vjoy"
)

// Target はマウス入力の割り当て先。IsAxis の場合は軸を二値スイッチとして扱う
type Target struct {
	Button uint8
	Axis   vjoy.Axis
	IsAxis bool
}

// ButtonMapping はマウスボタンから仮想ジョイスティックへの割り当て
// 左ボタンはトリガー (RZ) として扱い、押下で最大値、解放で最小値を書き込む
var ButtonMapping = map[hook.Button]Target{
	hook.ButtonLeft:    {Axis: vjoy.AxisRZ, IsAxis: true},
	hook.ButtonRight:   {Button: vjoy.ButtonA},
	hook.ButtonMiddle:  {Button: vjoy.ButtonLB},
	hook.ButtonBack:    {Button: vjoy.ButtonX},
	hook.ButtonForward: {Button: vjoy.ButtonRB},
}

// WheelMapping はホイール方向ごとのボタン
var WheelMapping = map[WheelDirection]uint8{
	WheelPull: vjoy.ButtonY,
	WheelPush: vjoy.ButtonRS,
}
