package scraper

import (
	"fmt"

	"mirror/internal/uitree"
	"mirror/pkg/errors"
	"mirror/pkg/models"
)

// Event is one accessibility callback with a snapshot of the active
// window. Root is nil when the OS had no active window.
type Event struct {
	PackageName string
	EventType   string
	Root        *uitree.Node
}

// DecodeEvent reads an accessibility payload out of an envelope. The
// package falls back to the envelope source.
func DecodeEvent(env *models.MessageEnvelope) (Event, error) {
	if env == nil || env.Payload == nil {
		return Event{}, errors.Extraction("payload", fmt.Errorf("accessibility payload is missing"))
	}

	ev := Event{PackageName: env.Source}
	pkg, ok, err := env.PayloadString("package_name")
	if err != nil {
		return Event{}, errors.Extraction("package_name", err)
	}
	if ok {
		ev.PackageName = pkg
	}

	eventType, ok, err := env.PayloadString("event_type")
	if err != nil {
		return Event{}, errors.Extraction("event_type", err)
	}
	if !ok {
		return Event{}, errors.Extraction("event_type", fmt.Errorf("event type is missing"))
	}
	ev.EventType = eventType

	if raw, ok := env.Payload["root"]; ok && raw != nil {
		root, err := uitree.FromMap(raw)
		if err != nil {
			return Event{}, errors.Extraction("root", err)
		}
		ev.Root = root
	}

	return ev, nil
}
