package publisher

import (
	"context"
	"sync"

	"github.com/mercatto/stock-reservation/internal/service/models/reservation"
)

// Published is one batch captured by the Recorder.
type Published struct {
	Queue         string
	Commands      []reservation.Command
	CorrelationID string
}

// Recorder is an in-memory Publisher for tests: it records every batch
// instead of touching a broker.
type Recorder struct {
	mu        sync.Mutex
	published []Published

	// Err, when set, is returned by every Publish call.
	Err error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records the batch.
func (r *Recorder) Publish(
	_ context.Context,
	queue string,
	commands []reservation.Command,
	correlationID string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.published = append(r.published, Published{
		Queue:         queue,
		Commands:      append([]reservation.Command(nil), commands...),
		CorrelationID: correlationID,
	})

	return nil
}

// Published returns a copy of everything recorded so far.
func (r *Recorder) Published() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Published(nil), r.published...)
}
