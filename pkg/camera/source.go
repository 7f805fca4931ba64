package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-vector/internal/log"
)

const (
	reconnectBaseDelay = 500 * time.Millisecond
	reconnectMaxDelay  = 10 * time.Second
	handshakeTimeout   = 10 * time.Second
	readTimeout        = 30 * time.Second
)

// Source reads camera frames from the robot bridge websocket and publishes
// them into a Feed. Each binary message is one PNG or JPEG image.
type Source struct {
	url    string
	feed   *Feed
	logger *slog.Logger
	dialer websocket.Dialer

	connected atomic.Bool
	frames    atomic.Uint64
	dropped   atomic.Uint64
}

// NewSource creates a source that dials url and publishes into feed.
func NewSource(url string, feed *Feed) *Source {
	return &Source{
		url:    url,
		feed:   feed,
		logger: log.Component("camera.source"),
		dialer: websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// Connected reports whether the source currently has a live connection.
func (s *Source) Connected() bool {
	return s.connected.Load()
}

// Stats returns the number of frames published and dropped as undecodable.
func (s *Source) Stats() (frames, dropped uint64) {
	return s.frames.Load(), s.dropped.Load()
}

// Run connects and reads frames until ctx is done, reconnecting with
// exponential backoff whenever the connection fails.
func (s *Source) Run(ctx context.Context) {
	delay := reconnectBaseDelay

	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			delay = reconnectBaseDelay
		}
		s.logger.Warn("camera disconnected", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// session runs one connection until it fails. connected is false when the
// dial itself failed.
func (s *Source) session(ctx context.Context) (connected bool, err error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	s.connected.Store(true)
	defer s.connected.Store(false)
	s.logger.Info("camera connected", "url", s.url)

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, ErrSourceClosed
			}
			return true, fmt.Errorf("read frame: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		img, err := Decode(data)
		if err != nil {
			if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
				s.logger.Warn("dropping undecodable frame", "error", err, "dropped", n)
			}
			continue
		}
		s.frames.Add(1)
		s.feed.Publish(img)
	}
}
