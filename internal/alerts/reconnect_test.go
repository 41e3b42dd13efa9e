package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarist/hivectl/internal/models"
)

// flakyOpener hands out scripted streams one per dial and counts dials.
type flakyOpener struct {
	mu      sync.Mutex
	streams []*scriptedStream
	dialErr []error // consumed before streams; nil entries skipped
	dials   int
}

func (f *flakyOpener) Open(ctx context.Context) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	if len(f.dialErr) > 0 {
		err := f.dialErr[0]
		f.dialErr = f.dialErr[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.streams) == 0 {
		return nil, fmt.Errorf("no more streams")
	}
	s := f.streams[0]
	f.streams = f.streams[1:]
	s.ctx = ctx
	return s, nil
}

func (f *flakyOpener) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

func TestReconnectingStreamRedials(t *testing.T) {
	inner := &flakyOpener{
		streams: []*scriptedStream{
			{payloads: []json.RawMessage{rawAlert("a-1", models.SeverityInfo)}, finalErr: io.EOF},
			{payloads: []json.RawMessage{rawAlert("a-2", models.SeverityInfo)}},
		},
	}
	opener := &ReconnectingOpener{Inner: inner, Log: testLogger(), MaxInterval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := opener.Open(ctx)
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, string(rawAlert("a-1", models.SeverityInfo)), string(first))

	// The EOF on the first connection is absorbed by a redial
	second, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, string(rawAlert("a-2", models.SeverityInfo)), string(second))
	assert.Equal(t, 2, inner.dialCount())
}

func TestReconnectingOpenerRetriesInitialDial(t *testing.T) {
	inner := &flakyOpener{
		dialErr: []error{fmt.Errorf("refused"), fmt.Errorf("refused")},
		streams: []*scriptedStream{
			{payloads: []json.RawMessage{rawAlert("a-1", models.SeverityInfo)}},
		},
	}
	opener := &ReconnectingOpener{Inner: inner, Log: testLogger(), MaxInterval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := opener.Open(ctx)
	require.NoError(t, err)
	defer stream.Close()

	payload, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, string(rawAlert("a-1", models.SeverityInfo)), string(payload))
	assert.Equal(t, 3, inner.dialCount())
}

func TestReconnectingStreamStopsOnCancellation(t *testing.T) {
	// One stream that fails straight away, then every redial fails too;
	// only the context can end the retry loop.
	inner := &flakyOpener{streams: []*scriptedStream{{finalErr: io.EOF}}}
	opener := &ReconnectingOpener{Inner: inner, Log: testLogger(), MaxInterval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := opener.Open(ctx)
	require.NoError(t, err)
	defer stream.Close()

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after cancellation")
	}
}
