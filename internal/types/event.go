package types

import "syscall"

// Event は uinput に書き込む struct input_event
type Event struct {
	Time  syscall.Timeval // イベント発生時刻 (カーネルが上書きする)
	Type  uint16          // イベントタイプ
	Code  uint16          // イベントコード
	Value int32           // イベント値
}
