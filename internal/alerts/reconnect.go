package alerts

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectingOpener wraps another opener so that a dropped subscription is
// transparently redialed with exponential backoff. The stream it returns
// only fails once the context ends or the backoff gives up.
type ReconnectingOpener struct {
	Inner StreamOpener
	Log   *slog.Logger

	// MaxInterval caps the backoff delay. Zero means the backoff default.
	MaxInterval time.Duration
}

// Open implements StreamOpener. The initial dial is retried with the same
// policy as mid-stream reconnects.
func (o *ReconnectingOpener) Open(ctx context.Context) (Stream, error) {
	rs := &reconnectingStream{opener: o, ctx: ctx}
	if err := rs.dial(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (o *ReconnectingOpener) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if o.MaxInterval > 0 {
		b.MaxInterval = o.MaxInterval
	}
	b.MaxElapsedTime = 0 // retry until the context ends
	return backoff.WithContext(b, ctx)
}

type reconnectingStream struct {
	opener *ReconnectingOpener
	ctx    context.Context
	cur    Stream
}

func (s *reconnectingStream) dial() error {
	return backoff.Retry(func() error {
		stream, err := s.opener.Inner.Open(s.ctx)
		if err != nil {
			if s.opener.Log != nil {
				s.opener.Log.Warn("alert stream dial failed, retrying", "error", err)
			}
			return err
		}
		s.cur = stream
		return nil
	}, s.opener.policy(s.ctx))
}

// Next delegates to the current connection and redials on failure. Only a
// context-end or exhausted backoff surfaces an error.
func (s *reconnectingStream) Next() (json.RawMessage, error) {
	for {
		payload, err := s.cur.Next()
		if err == nil {
			return payload, nil
		}
		if s.ctx.Err() != nil {
			return nil, s.ctx.Err()
		}
		if s.opener.Log != nil {
			s.opener.Log.Warn("alert stream dropped, reconnecting", "error", err)
		}
		s.cur.Close()
		if err := s.dial(); err != nil {
			return nil, err
		}
	}
}

func (s *reconnectingStream) Close() error {
	if s.cur != nil {
		return s.cur.Close()
	}
	return nil
}
