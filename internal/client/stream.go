package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// SSEStream is one open server-sent-events subscription. Next blocks until
// the next data frame arrives, the server closes the connection, or the
// context used to open the stream is cancelled.
type SSEStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	ctx    context.Context

	mu     sync.Mutex
	closed bool
}

// OpenAlertStream subscribes to the live alert push channel. Each frame is
// one JSON-encoded alert record. The stream closes when ctx is cancelled.
func (c *Client) OpenAlertStream(ctx context.Context) (*SSEStream, error) {
	url := strings.TrimSuffix(c.streamURL, "/") + "/sse/alerts"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The shared client enforces a request timeout, which would kill a
	// long-lived subscription. Streams use the transport directly.
	hc := &http.Client{Transport: c.httpClient.Transport}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("connect stream: %s", resp.Status)
	}

	s := &SSEStream{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
		ctx:    ctx,
	}

	// Close the body when the context ends so a blocked read unblocks.
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	return s, nil
}

// Next returns the payload of the next data frame. Comment lines, event
// names, and ids are skipped; multi-line data frames are joined per the SSE
// framing rules.
func (s *SSEStream) Next() (json.RawMessage, error) {
	var data [][]byte
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if s.ctx.Err() != nil {
				return nil, s.ctx.Err()
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}
		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if len(data) == 0 {
				continue // frame separator with no pending data
			}
			return json.RawMessage(bytes.Join(data, []byte("\n"))), nil
		}
		if line[0] == ':' {
			continue // comment / keep-alive
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		if string(field) == "data" {
			data = append(data, value)
		}
		// event: and id: fields carry no payload for this channel
	}
}

// Close terminates the subscription. Safe to call multiple times.
func (s *SSEStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
