package hook

import "sync"

// Dispatcher は購読中のハンドラへイベントを配送する
// Unsubscribe が戻った後、そのハンドラが呼ばれることはない
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.handlers {
		if existing == h {
			return
		}
	}
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Unsubscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.handlers {
		if existing == h {
			d.handlers = append(d.handlers[:i:i], d.handlers[i+1:]...)
			return
		}
	}
}

// Len は購読中のハンドラ数を返す
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// 配送中は読み取りロックを保持する。ハンドラ内から Subscribe/Unsubscribe を呼んではならない

func (d *Dispatcher) OnKeyDown(e *KeyEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		h.OnKeyDown(e)
	}
}

func (d *Dispatcher) OnButtonDown(e *ButtonEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		h.OnButtonDown(e)
	}
}

func (d *Dispatcher) OnButtonUp(e *ButtonEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		h.OnButtonUp(e)
	}
}

func (d *Dispatcher) OnWheel(e *WheelEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		h.OnWheel(e)
	}
}

func (d *Dispatcher) OnMove(e *MoveEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		h.OnMove(e)
	}
}
