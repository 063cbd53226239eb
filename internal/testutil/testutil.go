// Package testutil provides small helpers for building task graphs in tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/Jm20010201/tesseract-planning/internal/composer"
)

// Recorder collects node ids in completion order across goroutines.
type Recorder struct {
	mu  sync.Mutex
	ids []string
}

// Record appends an id.
func (r *Recorder) Record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

// IDs returns the recorded ids in order.
func (r *Recorder) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Has reports whether id was recorded.
func (r *Recorder) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.ids {
		if got == id {
			return true
		}
	}
	return false
}

// OK builds a task that records its id and succeeds.
func OK(id string, rec *Recorder) *composer.Task {
	return composer.NewTask(id, composer.Ports{}, func(ctx context.Context, run *composer.TaskRun) error {
		rec.Record(id)
		return nil
	})
}

// Fail builds a task that records its id and fails with msg.
func Fail(id string, rec *Recorder, msg string) *composer.Task {
	return composer.NewTask(id, composer.Ports{}, func(ctx context.Context, run *composer.TaskRun) error {
		rec.Record(id)
		return errors.New(msg)
	})
}

// Producer builds a task that writes value to an output port named key.
func Producer(id, key string, value any) *composer.Task {
	ports := composer.Ports{Outputs: []composer.Port{{Name: key, Required: true}}}
	return composer.NewTask(id, ports, func(ctx context.Context, run *composer.TaskRun) error {
		run.SetOutput(key, value)
		return nil
	})
}

// Consumer builds a task that requires an input port named key and records
// the value it resolves through rec (as id).
func Consumer(id, key string, rec *Recorder) *composer.Task {
	ports := composer.Ports{Inputs: []composer.Port{{Name: key, Required: true}}}
	return composer.NewTask(id, ports, func(ctx context.Context, run *composer.TaskRun) error {
		rec.Record(id)
		return nil
	})
}
