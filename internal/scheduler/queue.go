package scheduler

import "time"

type scheduledAction struct {
	action func()
	due    time.Time
	seq    uint64 // 同時刻のアクションは登録順
}

// actionQueue は due 昇順、同値なら seq 昇順の最小ヒープ
type actionQueue []*scheduledAction

func (q actionQueue) Len() int { return len(q) }

func (q actionQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q actionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *actionQueue) Push(x any) {
	*q = append(*q, x.(*scheduledAction))
}

func (q *actionQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
