// Package notification extracts message records from posted system
// notifications.
package notification

import (
	"fmt"
	"time"

	"mirror/internal/constants"
	"mirror/internal/message"
	"mirror/pkg/errors"
	"mirror/pkg/models"
)

const (
	ExtraTitle   = "android.title"
	ExtraText    = "android.text"
	ExtraBigText = "android.bigText"
)

// Notification is one posted notification as reported by the OS.
type Notification struct {
	PackageName string
	PostTime    int64
	Extras      map[string]interface{}
}

// Result separates "nothing to capture" from a failed read.
type Result struct {
	Record message.Record
	Found  bool
}

type Extractor struct {
	packages map[string]struct{}
	now      func() time.Time
}

type Option func(*Extractor)

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func NewExtractor(packages []string, opts ...Option) *Extractor {
	if len(packages) == 0 {
		packages = []string{constants.PackageWhatsApp, constants.PackageWhatsAppBusiness}
	}
	e := &Extractor{
		packages: make(map[string]struct{}, len(packages)),
		now:      time.Now,
	}
	for _, p := range packages {
		e.packages[p] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds a record from title and body (bigText, else text). The
// record timestamp is capture time, not the notification's post time.
func (e *Extractor) Extract(n Notification) (Result, error) {
	if _, ok := e.packages[n.PackageName]; !ok {
		return Result{}, nil
	}
	if n.Extras == nil {
		return Result{}, errors.Extraction("extras", fmt.Errorf("notification has no extras"))
	}

	title, err := extraString(n.Extras, ExtraTitle)
	if err != nil {
		return Result{}, err
	}
	text, err := extraString(n.Extras, ExtraText)
	if err != nil {
		return Result{}, err
	}
	bigText, err := extraString(n.Extras, ExtraBigText)
	if err != nil {
		return Result{}, err
	}

	body := bigText
	if body == "" {
		body = text
	}
	if title == "" || body == "" {
		return Result{}, nil
	}

	app, _ := message.SourceAppFor(n.PackageName)
	record, err := message.New(title, body, e.now().UnixMilli(), app)
	if err != nil {
		// whitespace-only body
		return Result{}, nil
	}
	return Result{Record: record, Found: true}, nil
}

func extraString(extras map[string]interface{}, key string) (string, error) {
	raw, ok := extras[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.Extraction(key, fmt.Errorf("expected text, got %T", raw))
	}
	return s, nil
}

// Decode reads a notification out of an envelope. The package falls back to
// the envelope source.
func Decode(env *models.MessageEnvelope) (Notification, error) {
	if env == nil || env.Payload == nil {
		return Notification{}, errors.Extraction("payload", fmt.Errorf("notification payload is missing"))
	}

	n := Notification{PackageName: env.Source}
	pkg, ok, err := env.PayloadString("package_name")
	if err != nil {
		return Notification{}, errors.Extraction("package_name", err)
	}
	if ok {
		n.PackageName = pkg
	}

	switch v := env.Payload["post_time"].(type) {
	case float64:
		n.PostTime = int64(v)
	case int64:
		n.PostTime = v
	case int:
		n.PostTime = int64(v)
	}

	if raw, ok := env.Payload["extras"]; ok && raw != nil {
		extras, ok := raw.(map[string]interface{})
		if !ok {
			return Notification{}, errors.Extraction("extras", fmt.Errorf("expected object, got %T", raw))
		}
		n.Extras = extras
	}

	return n, nil
}
