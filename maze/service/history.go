package service

import (
	"sync"

	list "github.com/bahlo/generic-list-go"
)

// EvaluationLog keeps the most recent evaluation records of a session.
// Once the limit is reached the oldest record is dropped.
type EvaluationLog struct {
	mu      sync.Mutex
	records *list.List[EvaluationRecord]
	limit   int
}

// NewEvaluationLog creates a log holding at most limit records
func NewEvaluationLog(limit int) *EvaluationLog {
	if limit < 1 {
		limit = 1
	}
	return &EvaluationLog{records: list.New[EvaluationRecord](), limit: limit}
}

// Add appends a record, evicting the oldest when full
func (l *EvaluationLog) Add(rec EvaluationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records.PushBack(rec)
	for l.records.Len() > l.limit {
		l.records.Remove(l.records.Front())
	}
}

// Records returns the records oldest first
func (l *EvaluationLog) Records() []EvaluationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]EvaluationRecord, 0, l.records.Len())
	for e := l.records.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value)
	}
	return out
}

func (l *EvaluationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.Len()
}

// Reset drops all records
func (l *EvaluationLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records.Init()
}
