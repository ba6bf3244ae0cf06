package boundary

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/logger"
	"mirror/pkg/circuitbreaker"
	apperrors "mirror/pkg/errors"
	"mirror/pkg/models"
)

type fakeProducer struct {
	mu        sync.Mutex
	published []models.MessageEnvelope
	topics    []string
	err       error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.published = append(p.published, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

type stubChannel struct {
	name    string
	ready   bool
	err     error
	invoked int
}

func (s *stubChannel) Name() string { return s.name }
func (s *stubChannel) Ready() bool  { return s.ready }
func (s *stubChannel) Invoke(ctx context.Context, method string, args map[string]interface{}) error {
	s.invoked++
	return s.err
}
func (s *stubChannel) Close() error { s.ready = false; return nil }

// blockingProducer holds every write until release is closed or the write
// context ends.
type blockingProducer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingProducer() *blockingProducer {
	return &blockingProducer{started: make(chan struct{}), release: make(chan struct{})}
}

func (p *blockingProducer) Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *blockingProducer) Close() error { return nil }

func TestKafkaChannel_Invoke(t *testing.T) {
	p := &fakeProducer{}
	ch := NewKafkaChannel(p, "whatsapp_accessibility", nil, 4, logger.NopLogger())
	require.True(t, ch.Ready())

	ctx := WithCaptureInfo(context.Background(), &models.CaptureInfo{Pipeline: "notification", SourceApp: "primary"})
	err := ch.Invoke(ctx, "onWhatsAppMessage", map[string]interface{}{"from": "Alice", "body": "Hi"})
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	require.Len(t, p.published, 1)
	env := p.published[0]
	assert.Equal(t, "whatsapp_accessibility", p.topics[0])
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "Alice", env.Payload["from"])
	assert.Equal(t, "onWhatsAppMessage", env.Metadata.Extra["method"])
	require.NotNil(t, env.Metadata.Capture)
	assert.Equal(t, "notification", env.Metadata.Capture.Pipeline)
}

func TestKafkaChannel_InvokeDoesNotWaitForBroker(t *testing.T) {
	p := newBlockingProducer()
	ch := NewKafkaChannel(p, "t", nil, 1, logger.NopLogger())
	defer close(p.release)

	start := time.Now()
	require.NoError(t, ch.Invoke(context.Background(), "m", map[string]interface{}{"body": "first"}))
	<-p.started
	require.NoError(t, ch.Invoke(context.Background(), "m", map[string]interface{}{"body": "queued"}))
	assert.ErrorIs(t, ch.Invoke(context.Background(), "m", map[string]interface{}{"body": "dropped"}), apperrors.ErrChannelBusy)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestKafkaChannel_CloseCancelsStuckWrites(t *testing.T) {
	p := newBlockingProducer()
	ch := NewKafkaChannel(p, "t", nil, 1, logger.NopLogger())

	require.NoError(t, ch.Invoke(context.Background(), "m", map[string]interface{}{"body": "stuck"}))
	<-p.started

	done := make(chan struct{})
	go func() {
		_ = ch.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(kafkaDrainTimeout + 2*time.Second):
		t.Fatal("Close did not return after the drain timeout")
	}
	assert.False(t, ch.Ready())
}

func TestKafkaChannel_NotReadyWhenClosed(t *testing.T) {
	ch := NewKafkaChannel(&fakeProducer{}, "t", nil, 0, nil)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.False(t, ch.Ready())
	assert.ErrorIs(t, ch.Invoke(context.Background(), "m", nil), apperrors.ErrChannelNotReady)

	assert.False(t, NewKafkaChannel(nil, "t", nil, 0, nil).Ready())
}

func TestKafkaChannel_OpenBreakerMeansNotReady(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	breaker := circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("boundary-test"))
	ch := NewKafkaChannel(p, "t", breaker, 8, logger.NopLogger())
	defer ch.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Invoke(context.Background(), "m", map[string]interface{}{}))
	}
	assert.Eventually(t, func() bool { return !ch.Ready() }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, ch.Invoke(context.Background(), "m", map[string]interface{}{}), apperrors.ErrChannelNotReady)
}

func TestFanout(t *testing.T) {
	a := &stubChannel{name: "kafka", ready: true}
	b := &stubChannel{name: "websocket", ready: false}
	f := NewFanout(a, b)

	assert.Equal(t, "kafka+websocket", f.Name())
	assert.True(t, f.Ready())
	require.NoError(t, f.Invoke(context.Background(), "m", nil))
	assert.Equal(t, 1, a.invoked)
	assert.Equal(t, 0, b.invoked)

	a.ready = false
	assert.False(t, f.Ready())
	assert.ErrorIs(t, f.Invoke(context.Background(), "m", nil), apperrors.ErrChannelNotReady)

	b.ready = true
	b.err = errors.New("write failed")
	assert.Error(t, f.Invoke(context.Background(), "m", nil))

	require.NoError(t, f.Close())
	assert.False(t, b.ready)
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session_id=host-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PushToAttachedHost(t *testing.T) {
	hub := NewHub(nil, 4, logger.NopLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	assert.False(t, hub.Ready())
	assert.ErrorIs(t, hub.Invoke(context.Background(), "m", nil), apperrors.ErrChannelNotReady)

	conn := dialHub(t, srv)

	var hello Frame
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, FrameConnected, hello.Type)
	assert.Equal(t, "host-1", hello.SessionID)

	require.Eventually(t, hub.Ready, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Invoke(context.Background(), "onWhatsAppMessage", map[string]interface{}{"from": "Alice"}))

	var frame Frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, FrameInvoke, frame.Type)
	assert.Equal(t, "onWhatsAppMessage", frame.Method)
	assert.Equal(t, "Alice", frame.Arguments["from"])
}

func TestHub_DetachOnDisconnect(t *testing.T) {
	hub := NewHub(nil, 4, logger.NopLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	var hello Frame
	require.NoError(t, conn.ReadJSON(&hello))
	require.Eventually(t, hub.Ready, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseRejectsHosts(t *testing.T) {
	hub := NewHub(nil, 4, logger.NopLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	var hello Frame
	require.NoError(t, conn.ReadJSON(&hello))
	require.Eventually(t, hub.Ready, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.False(t, hub.Ready())
	assert.Eventually(t, func() bool { return hub.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub([]string{"https://host.example"}, 1, logger.NopLogger())

	r := httptest.NewRequest("GET", "/", nil)
	assert.True(t, hub.checkOrigin(r), "non-browser clients carry no origin")

	r.Header.Set("Origin", "https://host.example")
	assert.True(t, hub.checkOrigin(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, hub.checkOrigin(r))
}
