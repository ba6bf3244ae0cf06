package boundary

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mirror/internal/broker"
	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/pkg/circuitbreaker"
	"mirror/pkg/errors"
	"mirror/pkg/metrics"
	"mirror/pkg/models"
)

const (
	defaultKafkaQueueSize = 64
	kafkaDrainTimeout     = 5 * time.Second
)

type queuedEnvelope struct {
	ctx context.Context
	env models.MessageEnvelope
}

// KafkaChannel publishes each invocation as an envelope on one topic.
// Invoke only enqueues; a single goroutine writes to the broker so a slow
// broker never holds up capture. When the queue is full the record is
// dropped.
type KafkaChannel struct {
	producer broker.Producer
	topic    string
	breaker  *circuitbreaker.Wrapper
	logger   logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEnvelope
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewKafkaChannel(producer broker.Producer, topic string, breaker *circuitbreaker.Wrapper, queueSize int, log logger.Logger) *KafkaChannel {
	if queueSize <= 0 {
		queueSize = defaultKafkaQueueSize
	}
	if log == nil {
		log = logger.NopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	k := &KafkaChannel{
		producer: producer,
		topic:    topic,
		breaker:  breaker,
		logger:   log,
		queue:    make(chan queuedEnvelope, queueSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	go k.drain()
	return k
}

func (k *KafkaChannel) Name() string { return constants.TransportKafka }

// Ready is false once closed or while the breaker is open.
func (k *KafkaChannel) Ready() bool {
	k.mu.RLock()
	closed := k.closed
	k.mu.RUnlock()
	if closed || k.producer == nil {
		return false
	}
	return k.breaker == nil || !k.breaker.IsOpen()
}

func (k *KafkaChannel) Invoke(ctx context.Context, method string, args map[string]interface{}) error {
	if !k.Ready() {
		return errors.ErrChannelNotReady
	}

	b := models.NewMessageEnvelopeBuilder().
		WithID(uuid.NewString()).
		WithSource(constants.ServiceName).
		WithPayload(args)
	if info, ok := captureInfoFrom(ctx); ok {
		b = b.WithCapture(info)
	}
	env := b.Build()
	env.Metadata.Extra = map[string]string{"method": method}
	if err := models.ValidateMessageEnvelope(env); err != nil {
		return errors.ErrValidation.WithCause(err)
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return errors.ErrChannelNotReady
	}
	select {
	case k.queue <- queuedEnvelope{ctx: context.WithoutCancel(ctx), env: *env}:
		return nil
	default:
		metrics.BoundaryPublishTotal.WithLabelValues(k.topic, "dropped").Inc()
		k.logger.WarnwCtx(ctx, "Boundary queue full, dropping record",
			"topic", k.topic,
			"envelope_id", env.ID,
		)
		return errors.ErrChannelBusy
	}
}

func (k *KafkaChannel) drain() {
	defer close(k.done)
	for item := range k.queue {
		k.publish(item)
	}
}

func (k *KafkaChannel) publish(item queuedEnvelope) {
	ctx, cancel := context.WithCancel(item.ctx)
	stop := context.AfterFunc(k.ctx, cancel)
	defer func() {
		stop()
		cancel()
	}()

	send := func() (interface{}, error) {
		return nil, k.producer.Publish(ctx, k.topic, item.env)
	}
	var err error
	if k.breaker == nil {
		_, err = send()
	} else {
		_, err = k.breaker.ExecuteWithContext(ctx, send)
	}
	if err != nil {
		metrics.BoundaryPublishTotal.WithLabelValues(k.topic, "error").Inc()
		k.logger.ErrorwCtx(ctx, "Failed to publish record to boundary topic",
			"topic", k.topic,
			"envelope_id", item.env.ID,
			"error", err,
		)
		return
	}
	metrics.BoundaryPublishTotal.WithLabelValues(k.topic, "ok").Inc()
}

// Close stops accepting records and waits for queued ones to be written.
// Writes still pending after the drain timeout are cancelled. The producer
// is owned by the caller.
func (k *KafkaChannel) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	close(k.queue)
	k.mu.Unlock()

	timer := time.NewTimer(kafkaDrainTimeout)
	defer timer.Stop()
	select {
	case <-k.done:
	case <-timer.C:
		k.logger.Warnw("Boundary queue drain timed out, cancelling pending writes",
			"topic", k.topic,
			"pending", len(k.queue),
		)
		k.cancel()
		<-k.done
	}
	k.cancel()
	return nil
}

type captureInfoKey struct{}

// WithCaptureInfo attaches pipeline details that KafkaChannel copies into
// the envelope metadata.
func WithCaptureInfo(ctx context.Context, info *models.CaptureInfo) context.Context {
	return context.WithValue(ctx, captureInfoKey{}, info)
}

func captureInfoFrom(ctx context.Context) (*models.CaptureInfo, bool) {
	info, ok := ctx.Value(captureInfoKey{}).(*models.CaptureInfo)
	return info, ok && info != nil
}
