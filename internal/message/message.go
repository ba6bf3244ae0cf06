// Package message defines the canonical record produced by both capture
// pipelines.
package message

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"

	"mirror/internal/constants"
)

// SourceApp identifies which package variant produced a record.
type SourceApp int

const (
	SourcePrimary SourceApp = iota
	SourceBusiness
)

func (s SourceApp) String() string {
	switch s {
	case SourceBusiness:
		return "business"
	default:
		return "primary"
	}
}

// SourceAppFor maps an observed package name to its variant. The second
// return is false for packages outside the observed pair.
func SourceAppFor(packageName string) (SourceApp, bool) {
	switch packageName {
	case constants.PackageWhatsApp:
		return SourcePrimary, true
	case constants.PackageWhatsAppBusiness:
		return SourceBusiness, true
	default:
		return SourcePrimary, false
	}
}

var ErrEmptyBody = errors.New("message body is empty")

// Record is immutable once built; fields are only exposed through getters.
type Record struct {
	sender    string
	body      string
	timestamp int64
	source    SourceApp
}

// New builds a record. An empty sender becomes "Unknown"; an empty body is
// rejected.
func New(sender, body string, timestampMillis int64, source SourceApp) (Record, error) {
	if strings.TrimSpace(body) == "" {
		return Record{}, ErrEmptyBody
	}
	if sender == "" {
		sender = constants.UnknownSender
	}
	return Record{sender: sender, body: body, timestamp: timestampMillis, source: source}, nil
}

func (r Record) Sender() string       { return r.sender }
func (r Record) Body() string         { return r.body }
func (r Record) Timestamp() int64     { return r.timestamp }
func (r Record) SourceApp() SourceApp { return r.source }

// Fingerprint is the dedup key: sender|body|timestamp.
func (r Record) Fingerprint() string {
	var b strings.Builder
	b.Grow(len(r.sender) + len(r.body) + 22)
	b.WriteString(r.sender)
	b.WriteByte('|')
	b.WriteString(r.body)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(r.timestamp, 10))
	return b.String()
}

// Payload is the fixed-key mapping pushed across the boundary.
func (r Record) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from":      r.sender,
		"body":      r.body,
		"timestamp": r.timestamp,
		"type":      constants.RecordTypeWhatsApp,
	}
}

// Len counts UTF-16 code units, the unit the platform reports text length in.
// Characters outside the BMP count twice.
func Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// IsNonTrivial reports whether text, trimmed, is long enough to be a message body.
func IsNonTrivial(text string) bool {
	return Len(strings.TrimSpace(text)) > constants.MinMessageTextLen
}
