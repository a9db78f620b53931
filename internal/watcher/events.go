package watcher

import (
	"time"

	"github.com/alucardeht/wayleave/internal/batch"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Gone reports whether the event means the path no longer exists.
func (e EventType) Gone() bool {
	return e == EventDelete || e == EventRename
}

type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

type EventClassifier struct{}

func NewEventClassifier() *EventClassifier {
	return &EventClassifier{}
}

// ClassifyBatch gives a single dropped-in agreement high priority and a bulk
// copy into the inbox low priority.
func (c *EventClassifier) ClassifyBatch(events []FileEvent) batch.JobPriority {
	count := len(events)

	if count > 10 {
		return batch.PriorityLow
	}

	if count >= 3 {
		return batch.PriorityNormal
	}

	return batch.PriorityHigh
}
