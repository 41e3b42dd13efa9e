package alerts

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/apiarist/hivectl/internal/models"
)

// Stream is one open push subscription delivering raw alert payloads.
type Stream interface {
	// Next blocks until the next payload, a transport error, or the
	// context the stream was opened with ends.
	Next() (json.RawMessage, error)
	Close() error
}

// StreamOpener dials the push channel. The transport (and any reconnect
// strategy) lives behind this interface so the merge logic never changes
// when the strategy does.
type StreamOpener interface {
	Open(ctx context.Context) (Stream, error)
}

// OpenerFunc adapts a function to the StreamOpener interface.
type OpenerFunc func(ctx context.Context) (Stream, error)

// Open implements StreamOpener.
func (f OpenerFunc) Open(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// Run consumes the live alert stream until the context ends or the
// transport fails. On a transport error the connection is closed and Run
// returns; it does not reconnect (wrap the opener in a ReconnectingOpener
// for that). onEvent, when non-nil, is invoked after each merged alert.
func (r *Reconciler) Run(ctx context.Context, opener StreamOpener, onEvent func(models.AlertRecord)) error {
	stream, err := opener.Open(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		payload, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			r.log.Warn("alert stream closed", "error", err)
			return err
		}
		rec, ok := r.ApplyRaw(payload)
		if !ok {
			continue
		}
		if onEvent != nil {
			onEvent(rec)
		}
	}
}
