// Package fixtures holds recording doubles for command registration tests.
package fixtures

import "sync"

// RecordingRegistry remembers every handler registered with it.
type RecordingRegistry struct {
	mu       sync.Mutex
	Handlers []any
	Err      error
}

func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{}
}

// RegisterCommand records handler, or returns Err when set.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}
