// Package capture owns the lifecycle of the capture service and runs the
// notification and accessibility pipelines.
package capture

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"mirror/internal/boundary"
	"mirror/internal/config"
	"mirror/internal/constants"
	"mirror/internal/dedup"
	"mirror/internal/forwarder"
	"mirror/internal/logger"
	"mirror/internal/message"
	"mirror/internal/notification"
	"mirror/internal/scraper"
	"mirror/pkg/errors"
	"mirror/pkg/logging"
	"mirror/pkg/metrics"
	"mirror/pkg/models"
	"mirror/pkg/tracing"
)

type State int

const (
	StateUninitialized State = iota
	StateConnected
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

var (
	ErrAlreadyConnected = stderrors.New("capture service already connected")
	ErrDestroyed        = stderrors.New("capture service destroyed")
)

// Opener establishes the boundary channel at Connect.
type Opener func(ctx context.Context) (boundary.Channel, error)

type Option func(*Controller)

// WithStateHook is called after every state transition, with the
// controller lock held.
func WithStateHook(hook func(State)) Option {
	return func(c *Controller) { c.onState = hook }
}

type Controller struct {
	mu        sync.RWMutex
	state     State
	cache     *dedup.Cache
	channel   boundary.Channel
	forwarder *forwarder.Forwarder

	notificationMu  sync.Mutex
	accessibilityMu sync.Mutex

	captureCfg config.CaptureConfig
	dedupCfg   config.DeduplicationConfig
	opener     Opener
	extractor  *notification.Extractor
	scraper    *scraper.Scraper
	budget     time.Duration
	onState    func(State)
	logger     logger.Logger
}

func NewController(
	captureCfg config.CaptureConfig,
	dedupCfg config.DeduplicationConfig,
	opener Opener,
	extractor *notification.Extractor,
	scr *scraper.Scraper,
	log logger.Logger,
	opts ...Option,
) *Controller {
	budget := captureCfg.NotificationTimeout
	if budget <= 0 {
		budget = constants.DefaultNotificationBudget
	}
	c := &Controller{
		captureCfg: captureCfg,
		dedupCfg:   dedupCfg,
		opener:     opener,
		extractor:  extractor,
		scraper:    scr,
		budget:     budget,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.LifecycleState.Set(float64(StateUninitialized))
	return c
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connect builds the dedup cache and opens the boundary channel. A channel
// that fails to open leaves the service connected with forwarding disabled.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnected:
		return ErrAlreadyConnected
	case StateDestroyed:
		return ErrDestroyed
	}

	c.cache = dedup.NewCache(c.dedupCfg)

	if c.opener != nil {
		ch, err := c.opener(ctx)
		if err != nil {
			c.logger.ErrorwCtx(ctx, "Failed to open boundary channel, records will not be forwarded",
				"error", err,
			)
		} else {
			c.channel = ch
		}
	}
	c.forwarder = forwarder.New(c.channel, c.logger)

	c.logger.InfowCtx(ctx, "Capture service connected",
		"packages", c.captureCfg.Packages,
		"event_types", c.captureCfg.EventTypes,
		"notification_timeout", c.budget,
		"dedup_max_entries", c.cache.MaxEntries(),
	)
	c.setState(StateConnected)
	return nil
}

// Destroy closes the channel and empties the cache. Calling it again is a
// no-op.
func (c *Controller) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDestroyed {
		return nil
	}

	var err error
	if c.channel != nil {
		if closeErr := c.channel.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close boundary channel: %w", closeErr)
		}
	}
	if c.cache != nil {
		c.cache.Clear()
	}

	c.logger.InfowCtx(ctx, "Capture service destroyed")
	c.setState(StateDestroyed)
	return err
}

func (c *Controller) setState(s State) {
	c.state = s
	metrics.LifecycleState.Set(float64(s))
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Controller) active() (*dedup.Cache, *forwarder.Forwarder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateConnected {
		return nil, nil, false
	}
	return c.cache, c.forwarder, true
}

// HandleNotification runs the notification pipeline and returns how many
// records were forwarded.
func (c *Controller) HandleNotification(ctx context.Context, n notification.Notification) int {
	return c.run(ctx, constants.PipelineNotification, &c.notificationMu, func(ctx context.Context) ([]message.Record, error) {
		res, err := c.extractor.Extract(n)
		if err != nil || !res.Found {
			return nil, err
		}
		return []message.Record{res.Record}, nil
	})
}

// HandleAccessibilityEvent runs the tree scraper pipeline and returns how
// many records were forwarded.
func (c *Controller) HandleAccessibilityEvent(ctx context.Context, ev scraper.Event) int {
	return c.run(ctx, constants.PipelineAccessibility, &c.accessibilityMu, func(ctx context.Context) ([]message.Record, error) {
		return c.scraper.HandleEvent(ctx, ev), nil
	})
}

func (c *Controller) run(ctx context.Context, pipeline string, mu *sync.Mutex, extract func(context.Context) ([]message.Record, error)) int {
	mu.Lock()
	defer mu.Unlock()

	ctx = logging.WithPipeline(ctx, pipeline)
	cache, fwd, ok := c.active()
	if !ok {
		metrics.CaptureEventsTotal.WithLabelValues(pipeline, "ignored").Inc()
		return 0
	}

	ctx, span := tracing.StartCaptureSpan(ctx, pipeline)
	start := time.Now()
	records, err := safeExtract(ctx, extract)
	if err != nil {
		tracing.EndCaptureSpan(span, 0, 0, err)
		metrics.CaptureEventsTotal.WithLabelValues(pipeline, "error").Inc()
		metrics.CaptureExtractionErrorsTotal.WithLabelValues(pipeline).Inc()
		c.logger.ErrorwCtx(ctx, "Error processing capture event",
			"error", err,
		)
		return 0
	}
	metrics.CaptureEventsTotal.WithLabelValues(pipeline, "processed").Inc()

	forwarded := 0
	for _, r := range records {
		metrics.CaptureRecordsTotal.WithLabelValues(pipeline).Inc()
		if !cache.ShouldForward(r) {
			continue
		}
		fwdCtx := boundary.WithCaptureInfo(ctx, &models.CaptureInfo{
			Pipeline:   pipeline,
			SourceApp:  r.SourceApp().String(),
			CapturedAt: time.UnixMilli(r.Timestamp()).UTC(),
		})
		fwd.Forward(fwdCtx, r)
		forwarded++
	}

	elapsed := time.Since(start)
	tracing.EndCaptureSpan(span, len(records), forwarded, nil)
	metrics.ObserveCaptureDuration(pipeline, elapsed)
	if elapsed > c.budget {
		metrics.CaptureSlowEventsTotal.WithLabelValues(pipeline).Inc()
		c.logger.WarnwCtx(ctx, "Capture event exceeded processing budget",
			"elapsed", elapsed,
			"budget", c.budget,
		)
	}

	return forwarded
}

func safeExtract(ctx context.Context, extract func(context.Context) ([]message.Record, error)) (records []message.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, errors.RecoverPanic(r)
		}
	}()
	return extract(ctx)
}
