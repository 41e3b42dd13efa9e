package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarist/hivectl/internal/config"
)

func streamServer(t *testing.T, frames []string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sse/alerts", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		io.WriteString(w, ": connected\n\n")
		flusher.Flush()
		for _, f := range frames {
			io.WriteString(w, f)
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	return New(config.Config{
		ServerURL:      srv.URL + "/api",
		StreamURL:      srv.URL,
		RequestTimeout: time.Second,
	})
}

func TestStreamDeliversDataFrames(t *testing.T) {
	c := streamServer(t, []string{
		"data: {\"id\":\"alert-1\"}\n\n",
		"event: alert\ndata: {\"id\":\"alert-2\"}\n\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.OpenAlertStream(ctx)
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"alert-1"}`, string(first))

	// event: lines are framing only, the payload still comes through
	second, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"alert-2"}`, string(second))
}

func TestStreamJoinsMultiLineData(t *testing.T) {
	c := streamServer(t, []string{
		"data: {\"id\":\ndata: \"alert-3\"}\n\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.OpenAlertStream(ctx)
	require.NoError(t, err)
	defer stream.Close()

	payload, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"alert-3"}`, string(payload))
}

func TestStreamCancellation(t *testing.T) {
	c := streamServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := c.OpenAlertStream(ctx)
	require.NoError(t, err)
	defer stream.Close()

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not unblock on cancellation")
	}
}

func TestStreamRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no stream here", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := New(config.Config{ServerURL: srv.URL + "/api", StreamURL: srv.URL})
	_, err := c.OpenAlertStream(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
