package models

import "time"

// MessageEnvelope is the wire format on every topic the service reads or
// writes. Source carries the originating package name for capture feeds.
type MessageEnvelope struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`  // OS callback or boundary record
	Metadata  Metadata               `json:"metadata"` // trace_id, capture info
}

type Metadata struct {
	TraceID string            `json:"trace_id,omitempty"`
	Capture *CaptureInfo      `json:"capture,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// CaptureInfo is attached to records pushed across the boundary.
type CaptureInfo struct {
	Pipeline   string    `json:"pipeline"`
	SourceApp  string    `json:"source_app"`
	CapturedAt time.Time `json:"captured_at"`
}
