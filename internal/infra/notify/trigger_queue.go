package notify

import (
	"container/heap"

	"github.com/KasumiMercury/primind-med-remind/internal/domain"
)

type queuedTrigger struct {
	trigger domain.Trigger
	index   int
}

// triggerQueue is a min-heap on FiresAt with id lookup for overwrite and
// cancel.
type triggerQueue struct {
	items []*queuedTrigger
	byID  map[string]*queuedTrigger
}

func newTriggerQueue() *triggerQueue {
	q := &triggerQueue{
		items: []*queuedTrigger{},
		byID:  make(map[string]*queuedTrigger),
	}
	heap.Init(q)

	return q
}

func (q *triggerQueue) Len() int {
	return len(q.items)
}

func (q *triggerQueue) Less(i, j int) bool {
	return q.items[i].trigger.FiresAt.Before(q.items[j].trigger.FiresAt)
}

func (q *triggerQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *triggerQueue) Push(x any) {
	item, ok := x.(*queuedTrigger)
	if !ok {
		return
	}

	item.index = len(q.items)
	q.items = append(q.items, item)
	q.byID[item.trigger.ID] = item
}

func (q *triggerQueue) Pop() any {
	n := len(q.items)
	if n == 0 {
		return nil
	}

	item := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	delete(q.byID, item.trigger.ID)

	return item
}

// upsert replaces any trigger with the same id.
func (q *triggerQueue) upsert(t domain.Trigger) {
	if existing, ok := q.byID[t.ID]; ok {
		existing.trigger = t
		heap.Fix(q, existing.index)

		return
	}

	heap.Push(q, &queuedTrigger{trigger: t})
}

func (q *triggerQueue) remove(id string) bool {
	item, ok := q.byID[id]
	if !ok {
		return false
	}

	heap.Remove(q, item.index)

	return true
}

func (q *triggerQueue) peek() (domain.Trigger, bool) {
	if len(q.items) == 0 {
		return domain.Trigger{}, false
	}

	return q.items[0].trigger, true
}

func (q *triggerQueue) popMin() domain.Trigger {
	item, _ := heap.Pop(q).(*queuedTrigger)

	return item.trigger
}

func (q *triggerQueue) snapshot() []domain.Trigger {
	out := make([]domain.Trigger, 0, len(q.items))
	for _, item := range q.items {
		out = append(out, item.trigger)
	}

	return out
}
