package clog

import (
	"fmt"
	"sync"
	"time"
)

// MemoryLog keeps the most recent lines in a fixed ring. Once full, each
// new line overwrites the oldest one.
type MemoryLog struct {
	mutex   sync.RWMutex
	lines   []string
	next    int
	count   int
	dropped int
}

func NewMemoryLog(capacity int) *MemoryLog {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryLog{lines: make([]string, capacity)}
}

// Printf appends a timestamped line. It returns false if an older line had
// to be discarded to make room.
func (ml *MemoryLog) Printf(format string, v ...interface{}) bool {
	now := time.Now().Format(time.StampMilli)

	ml.mutex.Lock()
	defer ml.mutex.Unlock()

	ml.lines[ml.next] = now + " " + fmt.Sprintf(format, v...)
	ml.next = (ml.next + 1) % len(ml.lines)
	if ml.count < len(ml.lines) {
		ml.count++
		return true
	}
	ml.dropped++
	return false
}

// Each calls fn on every retained line, oldest first.
func (ml *MemoryLog) Each(fn func(lineNo int, line string)) int {
	ml.mutex.RLock()
	defer ml.mutex.RUnlock()

	start := (ml.next - ml.count + len(ml.lines)) % len(ml.lines)
	for i := 0; i < ml.count; i++ {
		fn(i, ml.lines[(start+i)%len(ml.lines)])
	}
	return ml.count
}

func (ml *MemoryLog) Length() int {
	ml.mutex.RLock()
	defer ml.mutex.RUnlock()

	return ml.count
}

func (ml *MemoryLog) Dropped() int {
	ml.mutex.RLock()
	defer ml.mutex.RUnlock()

	return ml.dropped
}

func (ml *MemoryLog) Capacity() int {
	return len(ml.lines)
}
