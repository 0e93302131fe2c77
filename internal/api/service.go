package api

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/char5742/mouse2joystick/internal/config"
	"github.com/char5742/mouse2joystick/internal/engine"
	"github.com/char5742/mouse2joystick/internal/features"
	"github.com/char5742/mouse2joystick/internal/hook"
	"github.com/char5742/mouse2joystick/internal/screen"
	"github.com/char5742/mouse2joystick/internal/vjoy"
)

// ErrAlreadyRunning はサービスが既に実行中であることを示す
var ErrAlreadyRunning = errors.New("サービスは既に実行中です")

// InputHook は入力フックのライフサイクル
type InputHook interface {
	hook.Source
	Start() error
	// 主入力デバイスが切断されると閉じられる
	MouseDone() <-chan struct{}
	Close() error
}

// Backend はサービスが使う入出力デバイスを生成する
type Backend struct {
	OpenInput func(cfg *config.Config) (InputHook, screen.Provider, error)
	Driver    func(cfg *config.Config) vjoy.Driver
}

// LinuxBackend は evdev と uinput を使うバックエンドを返す
func LinuxBackend() Backend {
	return Backend{
		OpenInput: openEvdevHook,
		Driver: func(cfg *config.Config) vjoy.Driver {
			j := cfg.Joystick
			return features.NewUinputDriver(j.UinputPath, j.Name, j.AxisMin, j.AxisMax, j.LockDir)
		},
	}
}

func openEvdevHook(cfg *config.Config) (InputHook, screen.Provider, error) {
	devices, err := features.ScanDevices(features.DefaultByIDDir)
	if err != nil {
		return nil, nil, fmt.Errorf("デバイス一覧の取得に失敗しました: %w", err)
	}

	// 設定ファイルで指定された優先デバイスまたは最初のマウスとキーボードを使用
	mouseDevice, keyboardDevices := features.SelectDevices(devices, cfg.PreferredDevices())
	if mouseDevice == nil {
		return nil, nil, errors.New("マウスデバイスが見つかりません")
	}

	mouse, err := features.CreateMouse(mouseDevice.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("マウスの初期化に失敗しました: %w", err)
	}
	log.Printf("マウスデバイス: %s (%s)", mouseDevice.Name, mouseDevice.Path)

	var keyboards []features.Keyboard
	for _, dev := range keyboardDevices {
		kb, err := features.CreateKeyboard(dev.Path)
		if err != nil {
			log.Printf("キーボードの初期化に失敗しました: %s: %v", dev.Path, err)
			continue
		}
		log.Printf("キーボードデバイス: %s (%s)", dev.Name, dev.Path)
		keyboards = append(keyboards, kb)
	}
	if len(keyboards) == 0 {
		log.Println("キーボードが見つからないため、切り替えキーは使用できません")
	}

	pass, err := features.CreatePassthrough(cfg.Joystick.Name + " passthrough")
	if err != nil {
		log.Printf("%v", err)
	}

	var filter *features.MotionFilter
	if cfg.Motion.FilterSmoothingFactor > 0 {
		filter = features.NewMotionFilter(cfg.Motion.FilterSmoothingFactor, cfg.Motion.FilterWarmUpCount)
	}

	display := screen.Detect(cfg.Screen.Width, cfg.Screen.Height)
	return features.NewEvdevHook(mouse, keyboards, pass, display, filter), display, nil
}

// Status はサービスの状態
type Status struct {
	Running bool         `json:"running"`
	State   engine.State `json:"state"`
	Output  *vjoy.Output `json:"output,omitempty"`
}

// JoystickService は入力フックと変換エンジンの起動・停止を管理する
type JoystickService struct {
	backend Backend
	hub     *Hub

	mu       sync.Mutex
	input    InputHook
	engine   atomic.Pointer[engine.Engine]
	stopChan chan struct{}
}

// NewJoystickService は新しいサービスを作成する。hub が nil なら配信しない
func NewJoystickService(backend Backend, hub *Hub) *JoystickService {
	return &JoystickService{backend: backend, hub: hub}
}

// Start は設定を読み込んでエンジンを起動する
func (s *JoystickService) Start(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Load() != nil {
		return ErrAlreadyRunning
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}

	input, display, err := s.backend.OpenInput(cfg)
	if err != nil {
		return err
	}

	eng, err := engine.New(input, s.backend.Driver(cfg), display, opts, vjoy.WithObserver(s.publish))
	if err != nil {
		input.Close()
		return err
	}
	if err := input.Start(); err != nil {
		eng.Close()
		input.Close()
		return fmt.Errorf("入力フックの開始に失敗しました: %w", err)
	}

	s.input = input
	s.engine.Store(eng)
	s.stopChan = make(chan struct{})
	go s.watchInput(input.MouseDone(), s.stopChan)

	log.Println("サービスを開始しました")
	return nil
}

// watchInput はマウスが切断されたらサービスを停止する
func (s *JoystickService) watchInput(done <-chan struct{}, stop <-chan struct{}) {
	select {
	case <-done:
		log.Println("マウスが切断されたためサービスを停止します")
		if err := s.stop(stop); err != nil {
			log.Printf("サービスの停止に失敗しました: %v", err)
		}
	case <-stop:
	}
}

// Stop はエンジンを停止し、入力デバイスを解放する
func (s *JoystickService) Stop() error {
	return s.stop(nil)
}

// stop は run が nil でなければ、その実行が現在のものである場合だけ停止する
func (s *JoystickService) stop(run <-chan struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eng := s.engine.Load()
	if eng == nil {
		return nil
	}
	if run != nil && run != (<-chan struct{})(s.stopChan) {
		return nil
	}

	close(s.stopChan)
	err := errors.Join(eng.Close(), s.input.Close())
	s.engine.Store(nil)
	s.input = nil

	log.Println("サービスを停止しました")
	return err
}

// IsRunning はサービスが実行中かを返す
func (s *JoystickService) IsRunning() bool {
	return s.engine.Load() != nil
}

// Status は現在の状態を返す
func (s *JoystickService) Status() Status {
	eng := s.engine.Load()
	if eng == nil {
		return Status{}
	}
	out := eng.Output()
	return Status{Running: true, State: eng.State(), Output: &out}
}

func (s *JoystickService) publish(out vjoy.Output) {
	if s.hub == nil {
		return
	}
	var state engine.State
	if eng := s.engine.Load(); eng != nil {
		state = eng.State()
	}
	s.hub.Publish(out, state)
}
