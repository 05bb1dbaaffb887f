package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/queue"
	"github.com/bft-labs/camship/internal/telemetry"
	"github.com/bft-labs/camship/pkg/log"
)

const (
	// Outbound pacing. The post-send sleep is the primary explicit rate
	// limiter; the backlog surcharge kicks in when the queue builds up.
	sendDelayCongested = 100 * time.Millisecond
	sendDelayNormal    = 10 * time.Millisecond
	backlogDelay       = 50 * time.Millisecond
	backlogThreshold   = 30

	// Consecutive-result thresholds. Failures raise the shared congestion
	// flag; long success runs clear it optimistically, independent of
	// measured conditions.
	failureThreshold      = 3
	frameSuccessThreshold = 10
	pongSuccessThreshold  = 4

	// defaultReconnectDelay is the fixed pause before the single reconnect
	// attempt.
	defaultReconnectDelay = 5 * time.Second

	writeTimeout  = 10 * time.Second
	pongQueueSize = 10
)

// Session maintains the websocket connection to the ingestion endpoint: the
// join handshake, the inbound feedback reader, and the outbound frame
// sender. The two directions run as independent tasks.
type Session struct {
	url      string
	cameraID string
	queue    *queue.Queue
	tel      *telemetry.Telemetry
	logger   log.Logger
	dialer   *websocket.Dialer

	// pongs holds keep-alive payloads awaiting reply. Pings are never
	// answered inline from the read loop; the send loop drains this
	// opportunistically.
	pongs chan []byte

	// reconnectDelay is overridable in tests.
	reconnectDelay time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSession creates a session for the given endpoint and camera identity.
func NewSession(url, cameraID string, q *queue.Queue, tel *telemetry.Telemetry, logger log.Logger) *Session {
	return &Session{
		url:      url,
		cameraID: cameraID,
		queue:    q,
		tel:      tel,
		logger:   logger,
		dialer:   websocket.DefaultDialer,
		pongs:    make(chan []byte, pongQueueSize),

		reconnectDelay: defaultReconnectDelay,
	}
}

// Connect dials the endpoint and performs the join handshake. An initial
// connect failure is fatal to the agent.
func (s *Session) Connect(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnect, err)
	}

	join := JoinMessage{Join: s.cameraID, Capabilities: defaultCapabilities()}
	if err := writeJSON(conn, join); err != nil {
		conn.Close()
		return fmt.Errorf("%w: join: %v", domain.ErrConnect, err)
	}

	s.setConn(conn)
	s.logger.Info("connected to ingestion endpoint",
		log.String("url", s.url),
		log.String("camera_id", s.cameraID),
	)
	return nil
}

// Close tears down the connection, unblocking both loops.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// RunInbound reads feedback messages until the connection fails or the
// context is canceled. A dead inbound path degrades adaptation but is not
// fatal; the outbound loop owns reconnection.
func (s *Session) RunInbound(ctx context.Context) error {
	conn := s.current()
	if conn == nil {
		return fmt.Errorf("transport: not connected")
	}

	// Queue ping payloads for the send loop instead of replying inline;
	// the connection has a single writer.
	conn.SetPingHandler(func(appData string) error {
		select {
		case s.pongs <- []byte(appData):
		default:
			s.logger.Warn("pong queue full, dropping keep-alive reply")
		}
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("inbound read ended", log.Err(err))
			return nil
		}
		s.applyFeedback(data)
	}
}

// applyFeedback folds one inbound message into shared state.
//
// A message that parses but carries no feedback object, or a feedback object
// without the congested field, means the network is fine: the default is
// optimistic. Server suggestions bypass the congestion estimator entirely. A
// body that does not parse is ignored outright.
func (s *Session) applyFeedback(data []byte) {
	msg, ok := decodeServerMessage(data)
	if !ok {
		return
	}

	fb := msg.NetworkFeedback
	if fb == nil || fb.Congested == nil {
		s.tel.SetCongested(false)
		return
	}

	s.tel.SetCongested(*fb.Congested)

	if fb.SuggestedQuality != nil {
		s.tel.SetQuality(*fb.SuggestedQuality)
	}
	if fb.SuggestedResolution != nil {
		if w, h, ok := domain.ParseResolution(*fb.SuggestedResolution); ok {
			s.tel.SetResolution(w, h)
		}
	}
}

// RunOutbound dequeues frames in order and sends them, draining queued
// keep-alive replies opportunistically; when both are ready the choice is
// arbitrary. On a send failure it backs off, then makes exactly one
// reconnect attempt; if that fails the loop exits permanently.
func (s *Session) RunOutbound(ctx context.Context) error {
	var failures, successes uint32

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case payload := <-s.pongs:
			if err := s.writePong(payload); err != nil {
				s.logger.Warn("keep-alive reply failed", log.Err(err))
				failures++
				successes = 0
				continue
			}
			successes++
			if successes > pongSuccessThreshold {
				s.tel.SetCongested(false)
				failures = 0
			}

		case frame := <-s.queue.Out():
			s.tel.DecQueueDepth()

			if err := s.sendFrame(frame); err != nil {
				failures++
				successes = 0
				if failures > failureThreshold {
					s.tel.SetCongested(true)
				}
				s.logger.Warn("frame send failed",
					log.Err(err),
					log.Uint32("consecutive_failures", failures),
				)
				// The in-flight frame is lost, not retried; ordering
				// resumes with the next frame.
				if err := s.reconnect(ctx); err != nil {
					return err
				}
			} else {
				successes++
				failures = 0
				if successes > frameSuccessThreshold && s.tel.Congested() {
					s.tel.SetCongested(false)
				}
			}

			if err := s.pace(ctx); err != nil {
				return err
			}
		}
	}
}

// sendFrame builds and writes one frame message at the current shared
// resolution and quality.
func (s *Session) sendFrame(frame domain.Frame) error {
	width, height := s.tel.Resolution()
	msg := newFrameMessage(s.cameraID, frame, width, height, s.tel.Quality())
	return writeJSON(s.current(), msg)
}

// reconnect sleeps the fixed backoff, then dials a fresh connection and
// resends the short join. Exactly one attempt: a second failure closes the
// session for good.
func (s *Session) reconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.logger.Error("reconnect failed, closing session", log.Err(err))
		return fmt.Errorf("%w: %v", domain.ErrSessionClosed, err)
	}

	if err := writeJSON(conn, JoinMessage{Join: s.cameraID}); err != nil {
		conn.Close()
		s.logger.Error("rejoin failed, closing session", log.Err(err))
		return fmt.Errorf("%w: rejoin: %v", domain.ErrSessionClosed, err)
	}

	old := s.current()
	s.setConn(conn)
	if old != nil {
		old.Close()
	}
	s.logger.Info("reconnected to ingestion endpoint", log.String("url", s.url))
	return nil
}

// pace sleeps the adaptive inter-send delay: longer when congested, plus a
// surcharge while the queue backlog is high.
func (s *Session) pace(ctx context.Context) error {
	delay := sendDelayNormal
	if s.tel.Congested() {
		delay = sendDelayCongested
	}
	if s.tel.QueueDepth() > backlogThreshold {
		delay += backlogDelay
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (s *Session) writePong(payload []byte) error {
	conn := s.current()
	if conn == nil {
		return fmt.Errorf("transport: not connected")
	}
	return conn.WriteControl(websocket.PongMessage, payload, time.Now().Add(writeTimeout))
}

func (s *Session) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// writeJSON marshals v and writes it as one text message with a deadline.
func writeJSON(conn *websocket.Conn, v interface{}) error {
	if conn == nil {
		return fmt.Errorf("transport: not connected")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
