package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/browser"
	flag "github.com/spf13/pflag"

	"github.com/char5742/mouse2joystick/internal/api"
	"github.com/char5742/mouse2joystick/internal/config"
	"github.com/char5742/mouse2joystick/internal/features"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.StringP("config", "c", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.IntP("port", "p", 8080, "APIサーバーのポート番号")
	openBrowser := flag.Bool("open", false, "APIサーバーモードで状態エンドポイントをブラウザで開きます")
	flag.Parse()

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	// 設定ファイルパスの決定
	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("設定ファイルの読み込みに失敗しました: %v\nデフォルト設定を使用します\n", err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("設定ファイルを読み込みました: %s\n", cfgPath)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// SIGINT/SIGTERM で後始末してから終了する
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// APIモードかCLIモードかを判断
	if *useApi {
		fmt.Printf("APIサーバーモードで起動します (ポート: %d)...\n", *port)
		err = runApiServer(ctx, cfg, *port, *openBrowser)
	} else {
		fmt.Println("CLIモードで起動します...")
		err = runCLI(ctx, cfg)
	}
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

// APIサーバーモードでの実行
func runApiServer(ctx context.Context, cfg *config.Config, port int, open bool) error {
	hub := api.NewHub()
	service := api.NewJoystickService(api.LinuxBackend(), hub)
	server := api.NewServer(cfg, port, service, hub)

	// デバイスの抜き差しを監視し、一覧をキャッシュする
	monitor, err := features.NewDeviceMonitor(features.DefaultByIDDir)
	if err != nil {
		log.Printf("デバイスモニターの作成に失敗しました: %v", err)
	} else {
		monitor.RegisterCallback(func(ev features.DeviceEvent) {
			if ev.Type == features.DeviceAdded {
				log.Printf("デバイスが接続されました: %s (%s)", ev.Device.Name, ev.Device.Type)
			} else {
				log.Printf("デバイスが切断されました: %s (%s)", ev.Device.Name, ev.Device.Type)
			}
		})
		monitor.Start()
		defer monitor.Stop()
		server.UseDeviceMonitor(monitor)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	if open {
		url := fmt.Sprintf("http://localhost:%d/api/service/status", port)
		if err := browser.OpenURL(url); err != nil {
			log.Printf("ブラウザを開けませんでした: %v", err)
		}
	}

	select {
	case err := <-errChan:
		service.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("APIサーバーの起動に失敗しました: %w", err)
	case <-ctx.Done():
	}

	fmt.Println("シャットダウンします...")
	return errors.Join(service.Stop(), server.Stop())
}

// CLIモードでの実行
func runCLI(ctx context.Context, cfg *config.Config) error {
	service := api.NewJoystickService(api.LinuxBackend(), nil)

	if err := service.Start(cfg); err != nil {
		return fmt.Errorf("サービスの起動に失敗しました: %w", err)
	}

	// シグナルが来るまで待機
	<-ctx.Done()
	fmt.Println("シャットダウンします...")
	return service.Stop()
}
