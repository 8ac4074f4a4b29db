package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/infrastructure/resilience"
)

const DefaultSubject = "agreewise.progress"

// ProgressQueue publishes submission progress events and lets observers tail them.
type ProgressQueue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*ProgressQueue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*ProgressQueue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(
		url,
		nats.Name("agreewise"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &ProgressQueue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *ProgressQueue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *ProgressQueue) PublishProgress(ctx context.Context, event domain.ProgressEvent) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Run(ctx, opPublishProgress, publishPolicy, call)
	} else {
		err = call(ctx)
	}
	return publishError(err)
}

// SubscribeProgress delivers every event to handler until ctx is done.
func (q *ProgressQueue) SubscribeProgress(ctx context.Context, handler func(context.Context, domain.ProgressEvent) error) error {
	sub, err := q.conn.Subscribe(q.subject, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			q.logger.Warn("progress_event_invalid", "error", err)
			return
		}
		if err := handler(ctx, event); err != nil {
			q.logger.Warn("progress_handler_failed", "submission_id", event.SubmissionID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	return nil
}

func encodeEvent(event domain.ProgressEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode progress event: %w", err)
	}
	return data, nil
}

func decodeEvent(data []byte) (domain.ProgressEvent, error) {
	var event domain.ProgressEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.ProgressEvent{}, fmt.Errorf("decode progress event: %w", err)
	}
	if event.SubmissionID == "" || event.Stage == "" {
		return domain.ProgressEvent{}, errors.New("progress event missing submission id or stage")
	}
	return event, nil
}
