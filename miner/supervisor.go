package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"ferrominer/block"
	"ferrominer/telemetry"
)

// Work-source message types. Frames are JSON text envelopes; templates
// travel hex-encoded inside them.
const (
	msgNewJob        = "new_job"
	msgBlockAccepted = "block_accepted"
	msgBlockRejected = "block_rejected"
)

type envelope struct {
	Type string      `json:"type"`
	Job  *jobMessage `json:"job,omitempty"`
}

type jobMessage struct {
	Template   string `json:"template"`
	Difficulty uint64 `json:"difficulty"`
}

type submitMessage struct {
	BlockTemplate string `json:"block_template"`
}

// supervisor owns the single work-source connection. It republishes inbound
// jobs to the workers through the dispatcher, forwards solved blocks from
// the solution channel to the daemon, and reconnects with a fixed backoff
// whenever either direction fails. Workers never touch the connection.
type supervisor struct {
	daemonAddress string
	minerAddress  block.Address
	workerName    string
	retryInterval time.Duration

	dispatcher *dispatcher
	solutions  <-chan *block.Template
	counters   *telemetry.Counters
	log        *slog.Logger
}

// Run connects, serves, and reconnects forever. A lost or failed connection
// is never fatal; the loop only ends when the context is cancelled.
func (s *supervisor) Run(ctx context.Context) error {
	s.log.Info("starting connection supervisor", "daemon", s.daemonAddress)
	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("failed to connect to daemon", "daemon", s.daemonAddress, "error", err)
		} else {
			s.serve(ctx, conn)
			s.counters.SetConnected(false)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		s.log.Warn("retrying daemon connection", "in", s.retryInterval)
		select {
		case <-time.After(s.retryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dial opens the getwork WebSocket. The URL path carries the mining
// identity and worker label so the daemon knows who to credit.
func (s *supervisor) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint := fmt.Sprintf("ws://%s/getwork/%s/%s",
		s.daemonAddress, s.minerAddress, url.PathEscape(s.workerName))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("daemon refused connection (%s): %w", resp.Status, err)
		}
		return nil, err
	}
	return conn, nil
}

// serve multiplexes the two event sources on one select: inbound daemon
// messages and solved blocks from the workers. It returns when either
// direction fails, when the daemon closes, or when ctx is cancelled; the
// caller handles the reconnect.
func (s *supervisor) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	s.counters.SetConnected(true)
	s.log.Info("connected to daemon", "daemon", s.daemonAddress)

	// The websocket read is blocking, so a reader goroutine feeds the
	// select loop. Closing the connection on return unblocks it.
	done := make(chan struct{})
	defer close(done)
	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if kind != websocket.TextMessage {
				readErr <- fmt.Errorf("unexpected message type %d from daemon", kind)
				return
			}
			select {
			case inbound <- data:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("daemon closed the connection", "reason", err)
			} else {
				s.log.Error("error reading from daemon", "error", err)
			}
			return

		case data := <-inbound:
			if err := s.handleMessage(data); err != nil {
				s.log.Error("error handling daemon message", "error", err)
				return
			}

		case solution := <-s.solutions:
			payload, err := json.Marshal(submitMessage{BlockTemplate: solution.ToHex()})
			if err != nil {
				s.log.Error("error encoding block submission", "error", err)
				continue
			}
			s.log.Debug("submitting block", "height", solution.Height)
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Error("error sending block to daemon", "error", err)
				return
			}
		}
	}
}

// handleMessage dispatches one inbound frame. A malformed frame or unknown
// type returns an error, which ends the connection attempt; a job carrying
// a corrupt template is dropped without killing the connection, since the
// workers must never see an undecodable template.
func (s *supervisor) handleMessage(data []byte) error {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("malformed daemon message: %w", err)
	}

	switch msg.Type {
	case msgNewJob:
		if msg.Job == nil {
			return fmt.Errorf("job message without job payload")
		}
		template, err := block.FromHex(msg.Job.Template)
		if err != nil {
			s.log.Error("dropping job with undecodable template", "error", err)
			return nil
		}
		s.log.Info("new job received", "height", template.Height, "difficulty", msg.Job.Difficulty)
		s.counters.SetHeight(template.Height)
		s.dispatcher.Publish(notification{
			kind:       notifyNewJob,
			template:   template,
			difficulty: msg.Job.Difficulty,
		})

	case msgBlockAccepted:
		s.counters.BlockAccepted()
		s.log.Info("block accepted by network")

	case msgBlockRejected:
		s.counters.BlockRejected()
		s.log.Error("block rejected by network")

	default:
		return fmt.Errorf("unexpected daemon message type %q", msg.Type)
	}

	return nil
}
