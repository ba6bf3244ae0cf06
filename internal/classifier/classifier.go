// Package classifier decides whether an accessibility node looks like a
// message bubble. Strategies are swappable without touching the tree walk.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"mirror/internal/config"
	"mirror/internal/constants"
	"mirror/internal/message"
	"mirror/internal/uitree"
	"mirror/pkg/cel"
)

type Classifier interface {
	Name() string
	// IsMessageLike is called with the node's already-read text ("" when
	// absent). Errors are node read failures, never "not a message".
	IsMessageLike(ctx context.Context, node *uitree.Node, text string) (bool, error)
}

var (
	defaultMessageMarkers = []string{"MessageText", "ConversationRow"}
	defaultBubbleMarker   = "Bubble"
)

type Heuristic struct {
	messageMarkers []string
	bubbleMarker   string
	minBubbleLen   int
}

func NewHeuristic(cfg config.ClassifierConfig) *Heuristic {
	h := &Heuristic{
		messageMarkers: cfg.MessageClassMarkers,
		bubbleMarker:   cfg.BubbleClassMarker,
		minBubbleLen:   cfg.MinBubbleTextLength,
	}
	if len(h.messageMarkers) == 0 {
		h.messageMarkers = defaultMessageMarkers
	}
	if h.bubbleMarker == "" {
		h.bubbleMarker = defaultBubbleMarker
	}
	if h.minBubbleLen <= 0 {
		h.minBubbleLen = constants.DefaultMinBubbleTextLen
	}
	return h
}

func (h *Heuristic) Name() string { return constants.ClassifierHeuristic }

func (h *Heuristic) IsMessageLike(_ context.Context, node *uitree.Node, text string) (bool, error) {
	if text == "" {
		return false, nil
	}

	className, err := node.ClassName()
	if err != nil {
		return false, err
	}
	for _, marker := range h.messageMarkers {
		if strings.Contains(className, marker) {
			return true, nil
		}
	}

	if message.Len(text) <= h.minBubbleLen {
		return false, nil
	}
	parentClass, err := parentClassName(node)
	if err != nil {
		return false, err
	}
	return strings.Contains(parentClass, h.bubbleMarker), nil
}

// CEL evaluates a boolean expression over the node's facts.
type CEL struct {
	predicate *cel.Predicate
}

func NewCEL(evaluator *cel.Evaluator, expression string) (*CEL, error) {
	p, err := evaluator.CompilePredicate(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier expression: %w", err)
	}
	return &CEL{predicate: p}, nil
}

func (c *CEL) Name() string { return constants.ClassifierCEL }

func (c *CEL) Expression() string { return c.predicate.Expression() }

func (c *CEL) IsMessageLike(ctx context.Context, node *uitree.Node, text string) (bool, error) {
	className, err := node.ClassName()
	if err != nil {
		return false, err
	}
	desc, err := node.ContentDescription()
	if err != nil {
		return false, err
	}
	parentClass, err := parentClassName(node)
	if err != nil {
		return false, err
	}

	return c.predicate.Eval(ctx, cel.NodeFacts{
		Text:               text,
		TextLength:         message.Len(text),
		ClassName:          className,
		ParentClassName:    parentClass,
		ContentDescription: desc,
	})
}

func parentClassName(node *uitree.Node) (string, error) {
	parent, err := node.Parent()
	if err != nil || parent == nil {
		return "", err
	}
	return parent.ClassName()
}

// Switch holds the active strategy and lets it be replaced while the
// scraper is running.
type Switch struct {
	current atomic.Pointer[classifierBox]
}

type classifierBox struct{ c Classifier }

func NewSwitch(initial Classifier) *Switch {
	s := &Switch{}
	s.Set(initial)
	return s
}

func (s *Switch) Set(c Classifier) {
	s.current.Store(&classifierBox{c: c})
}

func (s *Switch) Current() Classifier {
	return s.current.Load().c
}

func (s *Switch) Name() string { return s.Current().Name() }

func (s *Switch) IsMessageLike(ctx context.Context, node *uitree.Node, text string) (bool, error) {
	return s.Current().IsMessageLike(ctx, node, text)
}

// FromConfig builds the configured strategy.
func FromConfig(cfg config.ClassifierConfig, evaluator *cel.Evaluator) (Classifier, error) {
	switch strings.ToLower(cfg.Type) {
	case "", constants.ClassifierHeuristic:
		return NewHeuristic(cfg), nil
	case constants.ClassifierCEL:
		if evaluator == nil {
			return nil, fmt.Errorf("cel classifier requires an evaluator")
		}
		return NewCEL(evaluator, cfg.Expression)
	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.Type)
	}
}
