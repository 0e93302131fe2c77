package consts

// UIInput デバイスの定数（uinput.hから）
const (
	MaxNameSize = 80         // デバイス名の最大サイズ
	DevCreate   = 0x5501     // デバイス作成用のIOCTL
	DevDestroy  = 0x5502     // デバイス破棄用のIOCTL
	SetEvBit    = 0x40045564 // イベントビット設定用のIOCTL
	SetKeyBit   = 0x40045565 // キービット設定用のIOCTL
	SetAbsBit   = 0x40045567 // 絶対座標ビット設定用のIOCTL
	BusVirtual  = 0x06       // 仮想バスタイプ
)

// AbsSize は uinput_user_dev の絶対座標配列のサイズ
const AbsSize = 64

// イベントタイプの定数（input-event-codes.hより）
const (
	Syn       = 0x00 // 同期イベント
	Key       = 0x01 // キーイベント
	Abs       = 0x03 // 絶対座標イベント
	SynReport = 0    // イベント報告の同期
)

// ジョイスティックの軸とボタン
const (
	AbsX  = 0x00 // 左スティック X
	AbsY  = 0x01 // 左スティック Y
	AbsZ  = 0x02 // 左トリガー
	AbsRX = 0x03 // 右スティック X
	AbsRY = 0x04 // 右スティック Y
	AbsRZ = 0x05 // 右トリガー

	BtnTrigger     = 0x120 // ジョイスティックボタン1 (BTN_JOYSTICK)
	JoystickButton = 16    // ボタン数
)
