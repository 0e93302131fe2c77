// Package scheduler は遅延アクションを単一のワーカーで実行するタイマーサービスを提供する
package scheduler

import (
	"container/heap"
	"log"
	"sync"
	"time"
)

// Looper は PostDelayed で登録されたアクションを実行時刻順に1つのゴルーチンで実行する
type Looper struct {
	mu       sync.Mutex
	queue    actionQueue
	seq      uint64
	disposed bool

	wake chan struct{} // 容量1: 二値シグナル
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New は Looper を作成し、ワーカーを起動する
func New() *Looper {
	l := &Looper{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// PostDelayed は action を delay 経過後に実行するよう登録する
// 呼び出し元をブロックせず、実行中のアクションの中からも呼び出せる
func (l *Looper) PostDelayed(action func(), delay time.Duration) {
	if action == nil {
		return
	}
	due := time.Now().Add(delay)

	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return
	}
	l.seq++
	heap.Push(&l.queue, &scheduledAction{action: action, due: due, seq: l.seq})
	l.mu.Unlock()

	l.signal()
}

// Dispose はワーカーを停止する。未実行のアクションは破棄される
func (l *Looper) Dispose() {
	l.once.Do(func() {
		l.mu.Lock()
		l.disposed = true
		l.queue = nil
		l.mu.Unlock()
		close(l.stop)
	})
}

// Done はワーカーが終了したときに閉じられるチャネルを返す
func (l *Looper) Done() <-chan struct{} {
	return l.done
}

// pending は未実行のアクション数を返す
func (l *Looper) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

func (l *Looper) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next は実行可能なアクションを取り出す
// 実行可能なものがなければ次の実行時刻までの待ち時間を返す (キューが空なら pending=false)
func (l *Looper) next() (action func(), wait time.Duration, pending bool, stopped bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disposed {
		return nil, 0, false, true
	}
	if l.queue.Len() == 0 {
		return nil, 0, false, false
	}

	head := l.queue[0]
	wait = time.Until(head.due)
	if wait > 0 {
		return nil, wait, true, false
	}
	heap.Pop(&l.queue)
	return head.action, 0, true, false
}

func (l *Looper) run() {
	defer close(l.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		action, wait, pending, stopped := l.next()
		if stopped {
			return
		}

		if action != nil {
			invoke(action)
			continue
		}

		if !pending {
			select {
			case <-l.wake:
			case <-l.stop:
				return
			}
			continue
		}

		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-l.wake:
			timer.Stop()
		case <-l.stop:
			return
		}
	}
}

// invoke はアクションを実行する。panic してもワーカーは止めない
func invoke(action func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("遅延アクションの実行に失敗しました: %v", r)
		}
	}()
	action()
}
