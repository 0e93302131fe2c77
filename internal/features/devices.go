package features

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultByIDDir は udev が作成する入力デバイスのシンボリックリンク置き場
const DefaultByIDDir = "/dev/input/by-id"

type Device struct {
	Name string     `json:"name"`
	Path string     `json:"path"`
	Type DeviceType `json:"type"`
}

// デバイスタイプを表す列挙型
type DeviceType int

const (
	DeviceTypeKeyboard DeviceType = iota
	DeviceTypeMouse
)

func (t DeviceType) String() string {
	if t == DeviceTypeMouse {
		return "mouse"
	}
	return "keyboard"
}

func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DeviceEventType はデバイスイベントの種類を表す
type DeviceEventType int

const (
	DeviceAdded DeviceEventType = iota
	DeviceRemoved
)

// DeviceEvent はデバイスの変更イベントを表す
type DeviceEvent struct {
	Type   DeviceEventType
	Device Device
}

// DeviceCallback はデバイスイベント発生時に呼び出されるコールバック関数の型
type DeviceCallback func(event DeviceEvent)

// ScanDevices は by-id ディレクトリからキーボードとマウスを検出する
func ScanDevices(dir string) ([]Device, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var devices []Device
	for _, entry := range entries {
		link := filepath.Join(dir, entry.Name())
		target, err := os.Readlink(link)
		if err != nil {
			continue
		}
		if dev, ok := classifyDevice(entry.Name(), dir, target); ok {
			devices = append(devices, dev)
		}
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// classifyDevice はリンク名からデバイス種別を判定し、リンク先を絶対パスに解決する
func classifyDevice(name, dir, target string) (Device, bool) {
	// eventが含まれない場合はスキップ
	if !strings.Contains(name, "event") {
		return Device{}, false
	}

	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Clean(filepath.Join(dir, target))
	}

	switch {
	case strings.HasSuffix(name, "-event-kbd"):
		return Device{Name: name, Path: path, Type: DeviceTypeKeyboard}, true
	case strings.HasSuffix(name, "-event-mouse"):
		return Device{Name: name, Path: path, Type: DeviceTypeMouse}, true
	}
	return Device{}, false
}

// SelectDevices は優先デバイス名を考慮してマウス1台とキーボードを選ぶ
// preferred に含まれるデバイスがあればそれだけを、なければ検出されたもの全てを使う
func SelectDevices(devices []Device, preferred []string) (mouse *Device, keyboards []Device) {
	pref := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		pref[name] = true
	}

	var mice, prefMice, prefKeyboards []Device
	for _, dev := range devices {
		switch dev.Type {
		case DeviceTypeMouse:
			mice = append(mice, dev)
			if pref[dev.Name] {
				prefMice = append(prefMice, dev)
			}
		case DeviceTypeKeyboard:
			keyboards = append(keyboards, dev)
			if pref[dev.Name] {
				prefKeyboards = append(prefKeyboards, dev)
			}
		}
	}

	if len(prefMice) > 0 {
		mice = prefMice
	}
	if len(prefKeyboards) > 0 {
		keyboards = prefKeyboards
	}
	if len(mice) > 0 {
		mouse = &mice[0]
	}
	return mouse, keyboards
}

// DeviceMonitor はデバイスの接続状態を監視する構造体
type DeviceMonitor struct {
	dir       string
	watcher   *fsnotify.Watcher
	callbacks []DeviceCallback
	devices   map[string]Device // パスをキーにしたデバイスマップ
	mutex     sync.RWMutex
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewDeviceMonitor は新しいDeviceMonitorを作成する
func NewDeviceMonitor(dir string) (*DeviceMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DeviceMonitor{
		dir:      dir,
		watcher:  watcher,
		devices:  make(map[string]Device),
		stopChan: make(chan struct{}),
	}, nil
}

// Start はデバイスの監視を開始する
func (dm *DeviceMonitor) Start() error {
	log.Println("デバイスモニターを開始します")

	for _, dir := range []string{filepath.Dir(dm.dir), dm.dir} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := dm.watcher.Add(dir); err != nil {
			log.Printf("ディレクトリの監視に失敗しました: %s - %v", dir, err)
		}
	}

	dm.Rescan()
	go dm.watchEvents()
	return nil
}

// Stop はデバイスの監視を停止する
func (dm *DeviceMonitor) Stop() {
	dm.stopOnce.Do(func() {
		log.Println("デバイスモニターを停止します")
		close(dm.stopChan)
		dm.watcher.Close()
	})
}

// RegisterCallback はデバイスイベントのコールバック関数を登録する
func (dm *DeviceMonitor) RegisterCallback(callback DeviceCallback) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.callbacks = append(dm.callbacks, callback)
}

// Rescan はデバイス一覧を再スキャンし、差分を通知する
func (dm *DeviceMonitor) Rescan() {
	devices, err := ScanDevices(dm.dir)
	if err != nil {
		log.Printf("デバイススキャンに失敗しました: %v", err)
		devices = nil
	}
	dm.updateDeviceList(devices)
}

// updateDeviceList は現在のデバイス一覧を更新し、変更があれば通知する
func (dm *DeviceMonitor) updateDeviceList(newDevices []Device) {
	var events []DeviceEvent

	dm.mutex.Lock()
	seen := make(map[string]bool, len(newDevices))
	for _, dev := range newDevices {
		seen[dev.Path] = true
		if _, exists := dm.devices[dev.Path]; !exists {
			dm.devices[dev.Path] = dev
			events = append(events, DeviceEvent{Type: DeviceAdded, Device: dev})
		}
	}
	for path, dev := range dm.devices {
		if !seen[path] {
			delete(dm.devices, path)
			events = append(events, DeviceEvent{Type: DeviceRemoved, Device: dev})
		}
	}
	callbacks := append([]DeviceCallback(nil), dm.callbacks...)
	dm.mutex.Unlock()

	for _, ev := range events {
		if ev.Type == DeviceAdded {
			log.Printf("デバイス接続: %s (%s)", ev.Device.Name, ev.Device.Path)
		} else {
			log.Printf("デバイス切断: %s (%s)", ev.Device.Name, ev.Device.Path)
		}
		for _, cb := range callbacks {
			cb(ev)
		}
	}
}

// watchEvents はfsnotifyのイベントを監視する
func (dm *DeviceMonitor) watchEvents() {
	// 一時的なファイルシステムイベントをまとめて処理する
	const debounce = 500 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-dm.stopChan:
			timer.Stop()
			return

		case <-timer.C:
			dm.Rescan()

		case event, ok := <-dm.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove) != 0 {
				timer.Reset(debounce)
			}

		case err, ok := <-dm.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("ファイルシステム監視エラー: %v", err)
		}
	}
}

// GetConnectedDevices は現在接続されているデバイスのスナップショットを返す
func (dm *DeviceMonitor) GetConnectedDevices() []Device {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	devices := make([]Device, 0, len(dm.devices))
	for _, device := range dm.devices {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices
}

// has は指定パスのデバイスが接続中かを返す
func (dm *DeviceMonitor) has(path string) bool {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()
	_, ok := dm.devices[path]
	return ok
}
