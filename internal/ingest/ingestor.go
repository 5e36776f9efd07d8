// Package ingest maintains the persistent connection to the wearable
// platform's trace feed and writes enriched samples through to Postgres.
package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"example.com/fittracker/internal/domain"
	"example.com/fittracker/internal/upstream"
)

// TokenSource supplies the bearer token presented on dial.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Enricher resolves per-user biometrics for a decoded frame.
type Enricher interface {
	FetchBiometrics(ctx context.Context, userID string) (upstream.Biometrics, error)
}

// SampleRecorder durably stores one enriched sample.
type SampleRecorder interface {
	InsertSample(ctx context.Context, sample domain.RawSample) error
}

// Config holds ingestor tunables.
type Config struct {
	StreamURL      string        // ws(s) URL of the trace feed endpoint.
	ReconnectDelay time.Duration // Fixed delay before re-dialing after a drop.
	EnrichTimeout  time.Duration // Per-frame budget for the biometrics lookup.
}

// Option configures optional behaviour for the Ingestor.
type Option func(*Ingestor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(i *Ingestor) {
		i.logger = logger
	}
}

// Ingestor owns the feed connection lifecycle: dial with a fresh token,
// stream frames in receipt order, reconnect after a fixed delay on any
// connection-level failure. Frame-level decode or enrichment failures skip
// that frame and keep the connection alive.
type Ingestor struct {
	cfg      Config
	dialer   *websocket.Dialer
	tokens   TokenSource
	enricher Enricher
	recorder SampleRecorder
	logger   *log.Logger
}

// New constructs an Ingestor. Zero durations fall back to a 5s reconnect
// delay and a 10s enrichment budget.
func New(cfg Config, tokens TokenSource, enricher Enricher, recorder SampleRecorder, opts ...Option) *Ingestor {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = 10 * time.Second
	}
	i := &Ingestor{
		cfg:      cfg,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		tokens:   tokens,
		enricher: enricher,
		recorder: recorder,
		logger:   log.New(log.Writer(), "[ingest] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// StreamEndpoint returns the trace feed URL for a streaming base URL.
func StreamEndpoint(wsBaseURL string) string {
	return strings.TrimRight(wsBaseURL, "/") + "/api/v1/traces"
}

// Run blocks until ctx is cancelled, supervising the connection lifecycle.
// It never returns on upstream failure; each drop is followed by the fixed
// reconnect delay and a fresh dial.
func (i *Ingestor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := i.streamOnce(ctx)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			i.logger.Printf("stream error: %v", err)
		}

		recordReconnect()
		// The token may be the reason the dial or read failed; fetch a fresh
		// one on the next attempt.
		i.tokens.Invalidate()

		i.logger.Printf("reconnecting in %s", i.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(i.cfg.ReconnectDelay):
		}
	}
}

// streamOnce performs one connect-and-stream cycle, returning when the
// connection drops or ctx is cancelled.
func (i *Ingestor) streamOnce(ctx context.Context) error {
	token, err := i.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", token)

	conn, resp, err := i.dialer.DialContext(ctx, i.cfg.StreamURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", i.cfg.StreamURL, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", i.cfg.StreamURL, err)
	}
	defer conn.Close()

	// Unblock a pending ReadMessage on shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	recordConnected(true)
	defer recordConnected(false)
	i.logger.Printf("streaming from %s", i.cfg.StreamURL)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read frame: %w", err)
		}
		i.processFrame(ctx, frame)
	}
}

// processFrame decodes, enriches, and records a single frame. Failures are
// logged and counted; the frame is dropped and the stream continues.
func (i *Ingestor) processFrame(ctx context.Context, frame []byte) {
	event, err := decodeFrame(frame)
	if err != nil {
		i.logger.Printf("decode error: %v", err)
		recordDecodeError()
		return
	}

	enrichCtx, cancel := context.WithTimeout(ctx, i.cfg.EnrichTimeout)
	bio, err := i.enricher.FetchBiometrics(enrichCtx, event.UserID)
	cancel()
	if err != nil {
		i.logger.Printf("enrichment error (user=%s): %v", event.UserID, err)
		recordEnrichmentError()
		return
	}

	sample := domain.RawSample{
		UserID:    event.UserID,
		Steps:     event.Steps,
		HeartBeat: event.HeartBeat,
		MET:       event.MET,
		Height:    bio.Height,
		Weight:    bio.Weight,
	}
	if err := i.recorder.InsertSample(ctx, sample); err != nil {
		i.logger.Printf("persist error (user=%s): %v", event.UserID, err)
		recordPersistError()
		return
	}
	recordProcessed(time.Now())
	i.logger.Printf("sample saved (user=%s steps=%d heart_beat=%d met=%.2f height=%d weight=%d)",
		event.UserID, event.Steps, event.HeartBeat, event.MET, bio.Height, bio.Weight)
}

// traceEvent is the decoded representation of one feed frame.
type traceEvent struct {
	UserID    string  `json:"userId"`
	Steps     int     `json:"steps"`
	HeartBeat int     `json:"heartBeat"`
	MET       float64 `json:"met"`
}

// decodeFrame unwraps a feed frame: base64 payload carrying UTF-8 JSON.
func decodeFrame(frame []byte) (traceEvent, error) {
	raw, err := base64.StdEncoding.DecodeString(string(frame))
	if err != nil {
		return traceEvent{}, fmt.Errorf("base64 decode: %w", err)
	}

	var event traceEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return traceEvent{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	if event.UserID == "" {
		return traceEvent{}, errors.New("frame missing userId")
	}
	return event, nil
}
