package vjoy

import "errors"

var (
	// ErrDriverDisabled はドライバが有効になっていない場合に返される
	ErrDriverDisabled = errors.New("vjoy driver not enabled")

	// ErrDeviceBusy はデバイスが他のフィーダーに専有されている場合に返される
	ErrDeviceBusy = errors.New("vjoy device is already owned by another feeder")

	// ErrDeviceMissing はデバイスが存在しないか無効な場合に返される
	ErrDeviceMissing = errors.New("vjoy device is not installed or is disabled")

	// ErrDeviceError はその他の取得・初期化エラー
	ErrDeviceError = errors.New("vjoy device general error")

	// ErrWriteFailed は軸・ボタンの書き込み失敗。致命的ではない
	ErrWriteFailed = errors.New("vjoy write failed")

	// ErrClosed はクローズ済みのセッションへの書き込み
	ErrClosed = errors.New("vjoy session closed")
)
