package escprint

import (
	"context"
	"errors"
	"log/slog"

	"github.com/looplab/fsm"
)

// Buffer states.
const (
	stEmpty   = "empty"   // not initialised yet
	stReady   = "ready"   // buffer holds the init sequence and appended commands
	stDrained = "drained" // the buffer was handed over by Bytes
)

// Buffer events.
const (
	evInit  = "init"
	evDrain = "drain"
)

func newBufferFSM(lg func() *slog.Logger) *fsm.FSM {
	return fsm.NewFSM(
		stEmpty,
		[]fsm.EventDesc{
			{Name: evInit, Src: []string{stEmpty, stReady, stDrained}, Dst: stReady},
			{Name: evDrain, Src: []string{stReady}, Dst: stDrained},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				lg().Debug("buffer state", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
}

// transition fires the event.  Re-entering the current state is not an
// error, the writer re-initialises a ready buffer on Reset.
func (w *Writer) transition(event string) {
	err := w.sm.Event(context.Background(), event)
	if err == nil {
		return
	}
	var nte fsm.NoTransitionError
	if errors.As(err, &nte) {
		return
	}
	w.log().Warn("buffer state", "event", event, "state", w.sm.Current(), "error", err)
}
