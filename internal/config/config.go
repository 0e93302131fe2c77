package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/char5742/mouse2joystick/internal/engine"
	"github.com/char5742/mouse2joystick/internal/hook"
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Joystick    JoystickConfig    `toml:"joystick" json:"joystick"`
	Mapping     MappingConfig     `toml:"mapping" json:"mapping"`
	Motion      MotionConfig      `toml:"motion" json:"motion"`
	Screen      ScreenConfig      `toml:"screen" json:"screen"`
	DevicePrefs DevicePrefsConfig `toml:"device_prefs" json:"device_prefs"`
}

// JoystickConfig は仮想ジョイスティックの設定
type JoystickConfig struct {
	DeviceID   uint   `toml:"device_id" json:"device_id"`
	UinputPath string `toml:"uinput_path" json:"uinput_path"`
	Name       string `toml:"name" json:"name"`
	AxisMin    int32  `toml:"axis_min" json:"axis_min"`
	AxisMax    int32  `toml:"axis_max" json:"axis_max"`
	// 専有管理用ロックファイルの置き場所。空なら一時ディレクトリ
	LockDir string `toml:"lock_dir" json:"lock_dir"`
}

// MappingConfig はマウス入力からジョイスティック出力への変換設定
type MappingConfig struct {
	InvertX           bool          `toml:"invert_x" json:"invert_x"`
	InvertY           bool          `toml:"invert_y" json:"invert_y"`
	AutoCenter        bool          `toml:"auto_center" json:"auto_center"`
	AutoSize          bool          `toml:"auto_size" json:"auto_size"`
	ManualWidth       int           `toml:"manual_width" json:"manual_width"`
	ManualHeight      int           `toml:"manual_height" json:"manual_height"`
	MotionStick       string        `toml:"motion_stick" json:"motion_stick"` // "left" または "right"
	SuppressByDefault bool          `toml:"suppress_by_default" json:"suppress_by_default"`
	ToggleChord       string        `toml:"toggle_chord" json:"toggle_chord"`
	WheelDebounce     time.Duration `toml:"wheel_debounce" json:"wheel_debounce"`
	PassthroughExempt []string      `toml:"passthrough_exempt" json:"passthrough_exempt"`
}

// MotionConfig はモーション制御の設定
type MotionConfig struct {
	FilterSmoothingFactor float64 `toml:"filter_smoothing_factor" json:"filter_smoothing_factor"`
	FilterWarmUpCount     int     `toml:"filter_warm_up_count" json:"filter_warm_up_count"`
}

// ScreenConfig は X11 から画面サイズを取得できない場合のフォールバック
type ScreenConfig struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

// DevicePrefsConfig はデバイス設定の設定
type DevicePrefsConfig struct {
	PreferredKeyboardDevice string `toml:"preferred_keyboard_device" json:"preferred_keyboard_device"`
	PreferredMouseDevice    string `toml:"preferred_mouse_device" json:"preferred_mouse_device"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Joystick: JoystickConfig{
			DeviceID:   1,
			UinputPath: "/dev/uinput",
			Name:       "mouse2joystick",
			AxisMin:    0,
			AxisMax:    32767,
		},
		Mapping: MappingConfig{
			AutoCenter:        true,
			AutoSize:          true,
			ManualWidth:       1920,
			ManualHeight:      1080,
			MotionStick:       "left",
			SuppressByDefault: true,
			ToggleChord:       "Ctrl+Alt+Z",
			WheelDebounce:     333 * time.Millisecond,
			PassthroughExempt: []string{"left"},
		},
		Motion: MotionConfig{
			FilterSmoothingFactor: 0,
			FilterWarmUpCount:     10,
		},
		Screen: ScreenConfig{
			Width:  1920,
			Height: 1080,
		},
	}
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mouse2joystick"), nil
}

// Validate は設定値が使用可能かを検証する
func (c *Config) Validate() error {
	var errs []error
	if c.Joystick.DeviceID == 0 {
		errs = append(errs, errors.New("joystick.device_id は1以上である必要があります"))
	}
	if c.Joystick.AxisMin >= c.Joystick.AxisMax {
		errs = append(errs, fmt.Errorf("joystick.axis_min (%d) は axis_max (%d) より小さい必要があります",
			c.Joystick.AxisMin, c.Joystick.AxisMax))
	}
	if _, err := engine.ParseStick(c.Mapping.MotionStick); err != nil {
		errs = append(errs, fmt.Errorf("mapping.motion_stick: %w", err))
	}
	if _, err := hook.ParseChord(c.Mapping.ToggleChord); err != nil {
		errs = append(errs, fmt.Errorf("mapping.toggle_chord: %w", err))
	}
	for _, name := range c.Mapping.PassthroughExempt {
		if _, err := hook.ParseButton(name); err != nil {
			errs = append(errs, fmt.Errorf("mapping.passthrough_exempt: %w", err))
		}
	}
	if !c.Mapping.AutoSize && (c.Mapping.ManualWidth <= 0 || c.Mapping.ManualHeight <= 0) {
		errs = append(errs, errors.New("mapping.manual_width と manual_height は正の値である必要があります"))
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		errs = append(errs, fmt.Errorf("screen.width (%d) と screen.height (%d) は正の値である必要があります",
			c.Screen.Width, c.Screen.Height))
	}
	if c.Mapping.WheelDebounce < 0 {
		errs = append(errs, errors.New("mapping.wheel_debounce は負にできません"))
	}
	return errors.Join(errs...)
}

// EngineOptions は変換エンジンの設定に変換する
func (c *Config) EngineOptions() (engine.Options, error) {
	if err := c.Validate(); err != nil {
		return engine.Options{}, err
	}

	// Validate 済みのためエラーにはならない
	stick, _ := engine.ParseStick(c.Mapping.MotionStick)
	chord, _ := hook.ParseChord(c.Mapping.ToggleChord)
	exempt := make([]hook.Button, 0, len(c.Mapping.PassthroughExempt))
	for _, name := range c.Mapping.PassthroughExempt {
		b, _ := hook.ParseButton(name)
		exempt = append(exempt, b)
	}

	return engine.Options{
		DeviceID:          c.Joystick.DeviceID,
		InvertX:           c.Mapping.InvertX,
		InvertY:           c.Mapping.InvertY,
		AutoCenter:        c.Mapping.AutoCenter,
		AutoSize:          c.Mapping.AutoSize,
		ManualWidth:       c.Mapping.ManualWidth,
		ManualHeight:      c.Mapping.ManualHeight,
		Stick:             stick,
		SuppressByDefault: c.Mapping.SuppressByDefault,
		ToggleChord:       chord,
		WheelDebounce:     c.Mapping.WheelDebounce,
		Exempt:            exempt,
	}, nil
}

// PreferredDevices は優先デバイス名の一覧を返す
func (c *Config) PreferredDevices() []string {
	var names []string
	for _, name := range []string{c.DevicePrefs.PreferredMouseDevice, c.DevicePrefs.PreferredKeyboardDevice} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	// 設定ファイルの読み込み。ファイルにない項目はデフォルト値のまま
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	return config, config.Validate()
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// ファイルを開く（なければ作成）
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// TOML形式でエンコードして書き込み
	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}
