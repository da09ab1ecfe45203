package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	defaultAlertStream  = "ALERTS"
	defaultAlertSubject = "alerts.>"
)

// JetStreamConfig configures the JetStream source
type JetStreamConfig struct {
	Stream  string
	Subject string
	// MaxWait bounds the wait for each replayed message
	MaxWait time.Duration
}

// JetStream replays every message held by a JetStream stream. Each message is
// one alert JSON object. Only messages present when Records starts are read.
type JetStream struct {
	logger *zap.Logger
	js     nats.JetStreamContext
	config JetStreamConfig
}

// NewJetStream creates a JetStream source
func NewJetStream(js nats.JetStreamContext, config JetStreamConfig, logger *zap.Logger) *JetStream {
	if config.Stream == "" {
		config.Stream = defaultAlertStream
	}
	if config.Subject == "" {
		config.Subject = defaultAlertSubject
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 5 * time.Second
	}
	return &JetStream{
		logger: logger.Named("jetstream-source"),
		js:     js,
		config: config,
	}
}

// Name implements store.Source
func (s *JetStream) Name() string {
	return "jetstream:" + s.config.Stream
}

// Records implements store.Source
func (s *JetStream) Records(ctx context.Context) ([]json.RawMessage, error) {
	info, err := s.js.StreamInfo(s.config.Stream, nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrStreamNotFound) {
			s.logger.Warn("Alert stream not found", zap.String("stream", s.config.Stream))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	lastSeq := info.State.LastSeq
	if info.State.Msgs == 0 {
		return nil, nil
	}

	sub, err := s.js.SubscribeSync(s.config.Subject,
		nats.BindStream(s.config.Stream),
		nats.DeliverAll(),
		nats.AckNone(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.config.Subject, err)
	}
	defer sub.Unsubscribe()

	// The subject filter may match none of the stream's messages
	ci, err := sub.ConsumerInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}
	matching := ci.Delivered.Consumer + ci.NumPending
	if matching == 0 {
		s.logger.Info("No alert messages match subject",
			zap.String("stream", s.config.Stream),
			zap.String("subject", s.config.Subject))
		return nil, nil
	}

	records := make([]json.RawMessage, 0, matching)
	for {
		waitCtx, cancel := context.WithTimeout(ctx, s.config.MaxWait)
		msg, err := sub.NextMsgWithContext(waitCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to replay stream %s: %w", s.config.Stream, err)
		}

		meta, err := msg.Metadata()
		if err != nil {
			return nil, fmt.Errorf("failed to read message metadata: %w", err)
		}

		records = append(records, json.RawMessage(msg.Data))

		if uint64(len(records)) >= matching || meta.Sequence.Stream >= lastSeq || meta.NumPending == 0 {
			break
		}
	}

	s.logger.Info("Replayed alert stream",
		zap.String("stream", s.config.Stream),
		zap.Int("messages", len(records)),
		zap.Uint64("last_seq", lastSeq))

	return records, nil
}
