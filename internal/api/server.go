package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/char5742/mouse2joystick/internal/config"
	"github.com/char5742/mouse2joystick/internal/features"
)

// Server はAPIサーバーを表す構造体
type Server struct {
	server  *http.Server
	cfg     *config.Config
	mutex   sync.RWMutex
	port    int
	service *JoystickService
	hub     *Hub
	devices func() ([]features.Device, error)
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(cfg *config.Config, port int, service *JoystickService, hub *Hub) *Server {
	return &Server{
		cfg:     cfg,
		port:    port,
		service: service,
		hub:     hub,
		devices: func() ([]features.Device, error) {
			return features.ScanDevices(features.DefaultByIDDir)
		},
	}
}

// UseDeviceMonitor はデバイス一覧の取得元をモニターのキャッシュに切り替える
func (s *Server) UseDeviceMonitor(dm *features.DeviceMonitor) {
	s.devices = func() ([]features.Device, error) {
		return dm.GetConnectedDevices(), nil
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	s.setupRoutes(router)
	return router
}

// Start はAPIサーバーを開始する
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	log.Printf("APIサーバーを開始します: http://localhost:%d", s.port)
	return s.server.ListenAndServe()
}

// Stop はAPIサーバーを停止する
func (s *Server) Stop() error {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.server != nil {
		log.Println("APIサーバーを停止します...")
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// GetConfig は現在の設定を返す
func (s *Server) GetConfig() *config.Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// UpdateConfig は設定を更新する。実行中のエンジンには次回起動時から反映される
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cfg = cfg
}

// writeJSON はJSONレスポンスを書き込む
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("JSONエンコードエラー: %v", err)
		}
	}
}

// writeError はエラーレスポンスを書き込む
func writeError(w http.ResponseWriter, status int, message string) {
	response := map[string]string{"error": message}
	writeJSON(w, status, response)
}
