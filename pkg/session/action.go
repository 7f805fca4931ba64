package session

import (
	"fmt"

	"github.com/teslashibe/go-vector/pkg/robot"
)

// QueueCapacity is the maximum number of pending actions.
const QueueCapacity = 11

// Action kinds, as shown to the operator.
const (
	KindSpeak     = "say_text"
	KindAnimation = "play_anim"
)

// ActionRunner is what an Action needs to dispatch itself.
type ActionRunner interface {
	robot.Speaker
	PlayAnimation(name string) error
}

// Action is a one-shot robot behavior. Implementations are immutable.
type Action interface {
	// Kind returns the display label of the action type.
	Kind() string
	// Payload returns the action argument for display.
	Payload() string
	// Dispatch sends the action to the robot without waiting for it to finish.
	Dispatch(r ActionRunner) error
}

// Speak says Text.
type Speak struct {
	Text string
}

func (a Speak) Kind() string { return KindSpeak }
func (a Speak) Payload() string { return a.Text }
func (a Speak) Dispatch(r ActionRunner) error { return r.SayText(a.Text) }
func (a Speak) String() string { return describe(a) }

// PlayAnimation plays the animation called Name.
type PlayAnimation struct {
	Name string
}

func (a PlayAnimation) Kind() string { return KindAnimation }
func (a PlayAnimation) Payload() string { return a.Name }
func (a PlayAnimation) Dispatch(r ActionRunner) error { return r.PlayAnimation(a.Name) }
func (a PlayAnimation) String() string { return describe(a) }

func describe(a Action) string {
	return fmt.Sprintf("%s( %s )", a.Kind(), a.Payload())
}

// QueueEntry is one pending action, numbered from 1.
type QueueEntry struct {
	Ordinal int    `json:"ordinal"`
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

// String formats the entry as "1: say_text( hello )".
func (e QueueEntry) String() string {
	return fmt.Sprintf("%d: %s( %s )", e.Ordinal, e.Kind, e.Payload)
}

// Queue is a bounded FIFO of actions. When full, pushing evicts the oldest
// entry so the newest request is never lost.
type Queue struct {
	items    []Action
	capacity int
}

// NewQueue creates an empty queue holding at most capacity actions.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		items:    make([]Action, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a, returning the evicted action if the queue was full.
func (q *Queue) Push(a Action) (evicted Action) {
	if len(q.items) >= q.capacity {
		evicted = q.items[0]
		q.items = q.items[1:]
	}
	q.items = append(q.items, a)
	return evicted
}

// Peek returns the head action without removing it.
func (q *Queue) Peek() (Action, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Pop removes and returns the head action.
func (q *Queue) Pop() (Action, bool) {
	a, ok := q.Peek()
	if ok {
		q.items[0] = nil
		q.items = q.items[1:]
	}
	return a, ok
}

// Len returns the number of pending actions.
func (q *Queue) Len() int { return len(q.items) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return q.capacity }

// Entries returns the pending actions in order for display.
func (q *Queue) Entries() []QueueEntry {
	out := make([]QueueEntry, len(q.items))
	for i, a := range q.items {
		out[i] = QueueEntry{Ordinal: i + 1, Kind: a.Kind(), Payload: a.Payload()}
	}
	return out
}
