// Package scraper walks accessibility node snapshots and turns message-like
// nodes into records.
package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"mirror/internal/classifier"
	"mirror/internal/config"
	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/internal/message"
	"mirror/internal/uitree"
	"mirror/pkg/metrics"
)

var timePattern = regexp.MustCompile(`\d{1,2}:\d{2}`)

type Scraper struct {
	classifier        classifier.Classifier
	packages          map[string]struct{}
	eventTypes        map[string]struct{}
	senderMaxDepth    int
	timestampMaxDepth int
	now               func() time.Time
	logger            logger.Logger
}

type Option func(*Scraper)

// WithClock replaces the capture-time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

func New(cfg config.CaptureConfig, c classifier.Classifier, log logger.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		classifier:        c,
		packages:          toSet(cfg.Packages),
		eventTypes:        toSet(cfg.EventTypes),
		senderMaxDepth:    cfg.SenderMaxDepth,
		timestampMaxDepth: cfg.TimestampMaxDepth,
		now:               time.Now,
		logger:            log,
	}
	if len(s.packages) == 0 {
		s.packages = toSet([]string{constants.PackageWhatsApp, constants.PackageWhatsAppBusiness})
	}
	if len(s.eventTypes) == 0 {
		s.eventTypes = toSet([]string{
			constants.EventWindowStateChanged,
			constants.EventWindowContentChanged,
			constants.EventViewScrolled,
		})
	}
	if s.senderMaxDepth <= 0 {
		s.senderMaxDepth = constants.DefaultSenderMaxDepth
	}
	if s.timestampMaxDepth <= 0 {
		s.timestampMaxDepth = constants.DefaultTimestampMaxDepth
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Accepts reports whether an event of this package and type triggers a scrape.
func (s *Scraper) Accepts(ev Event) bool {
	if _, ok := s.packages[ev.PackageName]; !ok {
		return false
	}
	_, ok := s.eventTypes[ev.EventType]
	return ok
}

// HandleEvent filters the event and scrapes its window. Node read failures
// are logged and never stop the walk.
func (s *Scraper) HandleEvent(ctx context.Context, ev Event) []message.Record {
	if !s.Accepts(ev) || ev.Root == nil {
		return nil
	}

	app, _ := message.SourceAppFor(ev.PackageName)
	records, errs := s.Scrape(ctx, ev.Root, app)
	for _, err := range errs {
		s.logger.WarnwCtx(ctx, "Skipped unreadable accessibility node",
			"event_type", ev.EventType,
			"error", err,
		)
	}
	return records
}

// Scrape walks the tree breadth-first from root and returns records in
// visiting order together with every per-node read failure.
func (s *Scraper) Scrape(ctx context.Context, root *uitree.Node, app message.SourceApp) ([]message.Record, []error) {
	var (
		records []message.Record
		errs    []error
	)
	if root == nil {
		return nil, nil
	}

	queue := []*uitree.Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		metrics.ScrapedNodesTotal.Inc()

		text, err := node.Text()
		if err != nil {
			errs = append(errs, fmt.Errorf("read node text: %w", err))
			continue
		}

		like, err := s.classifier.IsMessageLike(ctx, node, text)
		if err != nil {
			errs = append(errs, fmt.Errorf("classify node: %w", err))
		} else if like && message.IsNonTrivial(text) {
			if rec, err := s.buildRecord(node, text, app); err != nil {
				errs = append(errs, err)
			} else {
				records = append(records, rec)
			}
		}

		children, err := node.Children()
		if err != nil {
			errs = append(errs, fmt.Errorf("read node children: %w", err))
			continue
		}
		for _, child := range children {
			if child != nil {
				queue = append(queue, child)
			}
		}
	}

	return records, errs
}

func (s *Scraper) buildRecord(node *uitree.Node, text string, app message.SourceApp) (message.Record, error) {
	sender := s.inferSender(node, text)
	ts, matched := s.inferTimestamp(node)
	if matched {
		metrics.CaptureTimestampPatternTotal.WithLabelValues("matched").Inc()
	} else {
		metrics.CaptureTimestampPatternTotal.WithLabelValues("unmatched").Inc()
	}
	return message.New(sender, text, ts, app)
}

// inferSender walks up from the message node's parent. At each level it
// scans the level's siblings (children of its parent), then the level's own
// text. Returns "" when nothing qualifies.
func (s *Scraper) inferSender(node *uitree.Node, messageText string) string {
	current, err := node.Parent()
	if err != nil {
		return ""
	}

	for depth := 0; current != nil && depth < s.senderMaxDepth; depth++ {
		parent, err := current.Parent()
		if err != nil {
			return ""
		}

		if parent != nil {
			if name, ok := senderAmong(parent); ok {
				return name
			}
		}

		if text, err := current.Text(); err == nil && isSenderText(text) && text != messageText {
			return text
		}

		current = parent
	}

	return ""
}

func senderAmong(parent *uitree.Node) (string, bool) {
	siblings, err := parent.Children()
	if err != nil {
		return "", false
	}
	for _, sibling := range siblings {
		if sibling == nil {
			continue
		}
		text, err := sibling.Text()
		if err != nil {
			continue
		}
		desc, err := sibling.ContentDescription()
		if err != nil {
			continue
		}
		if isSenderText(text) || strings.Contains(desc, "name") || strings.Contains(desc, "contact") {
			if text != "" {
				return text, true
			}
			return desc, true
		}
	}
	return "", false
}

func isSenderText(text string) bool {
	return text != "" &&
		message.Len(text) < constants.MaxSenderLen &&
		!strings.Contains(text, "•") &&
		!strings.Contains(text, ":")
}

// inferTimestamp looks for a clock-like value on the node and its nearest
// ancestors. The returned time is always capture time; a matched clock value
// cannot be turned into a date reliably, so only the match is reported.
func (s *Scraper) inferTimestamp(node *uitree.Node) (int64, bool) {
	captured := s.now().UnixMilli()

	current := node
	for depth := 0; current != nil && depth < s.timestampMaxDepth; depth++ {
		desc, err := current.ContentDescription()
		if err != nil {
			break
		}
		text, err := current.Text()
		if err != nil {
			break
		}
		if timePattern.MatchString(desc) || timePattern.MatchString(text) {
			return captured, true
		}
		if current, err = current.Parent(); err != nil {
			break
		}
	}

	return captured, false
}
