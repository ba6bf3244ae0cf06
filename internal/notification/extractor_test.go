package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/message"
	"mirror/pkg/errors"
	"mirror/pkg/models"
)

var fixedNow = time.UnixMilli(1700000000123)

func newTestExtractor() *Extractor {
	return NewExtractor(nil, WithClock(func() time.Time { return fixedNow }))
}

func TestExtract(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name     string
		n        Notification
		found    bool
		wantFrom string
		wantBody string
	}{
		{
			name:     "text body",
			n:        Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: "Alice", ExtraText: "Hi", ExtraBigText: ""}},
			found:    true,
			wantFrom: "Alice",
			wantBody: "Hi",
		},
		{
			name:     "big text wins",
			n:        Notification{PackageName: "com.whatsapp.w4b", Extras: map[string]interface{}{ExtraTitle: "Shop", ExtraText: "New order", ExtraBigText: "New order #42 ready for pickup"}},
			found:    true,
			wantFrom: "Shop",
			wantBody: "New order #42 ready for pickup",
		},
		{
			name: "empty title",
			n:    Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: "", ExtraText: "Hi"}},
		},
		{
			name: "empty body",
			n:    Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: "Alice"}},
		},
		{
			name: "whitespace body",
			n:    Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: "Alice", ExtraText: "  "}},
		},
		{
			name: "unobserved package",
			n:    Notification{PackageName: "com.google.android.gm", Extras: map[string]interface{}{ExtraTitle: "Alice", ExtraText: "Hi"}},
		},
		{
			name: "null extras values",
			n:    Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: nil, ExtraText: nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Extract(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.found, res.Found)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.wantFrom, res.Record.Sender())
			assert.Equal(t, tt.wantBody, res.Record.Body())
			assert.Equal(t, fixedNow.UnixMilli(), res.Record.Timestamp())
		})
	}
}

func TestExtract_SourceApp(t *testing.T) {
	e := newTestExtractor()
	res, err := e.Extract(Notification{PackageName: "com.whatsapp.w4b", Extras: map[string]interface{}{ExtraTitle: "A", ExtraText: "B"}})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, message.SourceBusiness, res.Record.SourceApp())
}

func TestExtract_Errors(t *testing.T) {
	e := newTestExtractor()

	_, err := e.Extract(Notification{PackageName: "com.whatsapp"})
	assert.True(t, errors.IsExtraction(err))

	_, err = e.Extract(Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: 12, ExtraText: "Hi"}})
	assert.True(t, errors.IsExtraction(err))

	_, err = e.Extract(Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: "Alice", ExtraBigText: []string{"x"}}})
	assert.True(t, errors.IsExtraction(err))
}

func TestExtract_CustomPackages(t *testing.T) {
	e := NewExtractor([]string{"com.example.chat"})
	res, err := e.Extract(Notification{PackageName: "com.example.chat", Extras: map[string]interface{}{ExtraTitle: "A", ExtraText: "B"}})
	require.NoError(t, err)
	assert.True(t, res.Found)

	res, err = e.Extract(Notification{PackageName: "com.whatsapp", Extras: map[string]interface{}{ExtraTitle: "A", ExtraText: "B"}})
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestDecode(t *testing.T) {
	n, err := Decode(&models.MessageEnvelope{
		Source: "com.whatsapp",
		Payload: map[string]interface{}{
			"post_time": float64(1700000000000),
			"extras":    map[string]interface{}{ExtraTitle: "Alice", ExtraText: "Hi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "com.whatsapp", n.PackageName)
	assert.Equal(t, int64(1700000000000), n.PostTime)
	assert.Equal(t, "Alice", n.Extras[ExtraTitle])

	n, err = Decode(&models.MessageEnvelope{Payload: map[string]interface{}{"package_name": "com.whatsapp.w4b"}})
	require.NoError(t, err)
	assert.Equal(t, "com.whatsapp.w4b", n.PackageName)
	assert.Nil(t, n.Extras)

	_, err = Decode(&models.MessageEnvelope{Payload: map[string]interface{}{"extras": "nope"}})
	assert.True(t, errors.IsExtraction(err))

	_, err = Decode(nil)
	assert.True(t, errors.IsExtraction(err))
}
