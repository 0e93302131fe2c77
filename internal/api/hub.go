package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/char5742/mouse2joystick/internal/engine"
	"github.com/char5742/mouse2joystick/internal/vjoy"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // ローカル用途のため全てのオリジンを許可
	},
}

// OutputMessage はライブストリームで送るメッセージ
type OutputMessage struct {
	Type      string       `json:"type"` // "output"
	Seq       int64        `json:"seq"`
	Timestamp int64        `json:"timestamp"` // ミリ秒
	Output    vjoy.Output  `json:"output"`
	State     engine.State `json:"state"`
}

// Hub は WebSocket クライアントを管理し、出力の変化を配信する
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Client は接続中の WebSocket クライアント
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("ライブストリームに接続しました (接続数: %d)", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("ライブストリームから切断しました (接続数: %d)", n)
}

// Len は接続中のクライアント数を返す
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish は全クライアントに出力を送る。送信バッファが一杯のクライアントは切断する
// 入力処理のゴルーチンから呼ばれるためブロックしない
func (h *Hub) Publish(out vjoy.Output, state engine.State) {
	h.mu.Lock()
	h.seq++
	msg := OutputMessage{
		Type:      "output",
		Seq:       h.seq,
		Timestamp: time.Now().UnixMilli(),
		Output:    out,
		State:     state,
	}
	var slow []*Client
	if len(h.clients) > 0 {
		data, err := json.Marshal(msg)
		if err != nil {
			h.mu.Unlock()
			log.Printf("メッセージのエンコードに失敗しました: %v", err)
			return
		}
		for c := range h.clients {
			select {
			case c.send <- data:
			default:
				delete(h.clients, c)
				slow = append(slow, c)
			}
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	for _, c := range slow {
		close(c.send)
		log.Printf("送信が追いつかないクライアントを切断しました (接続数: %d)", n)
	}
}

// Close は全クライアントを切断する
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP は接続を WebSocket にアップグレードし、送受信ループを起動する
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket へのアップグレードに失敗しました: %v", err)
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, 64)}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump はクライアントからの切断を検出する。受信したメッセージは捨てる
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
