package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/config"
	"mirror/internal/constants"
	"mirror/internal/logger"
	apperrors "mirror/pkg/errors"
	"mirror/pkg/models"
)

type mapStore struct {
	values map[string]string
	err    error
}

func (s *mapStore) Get(ctx context.Context, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.values[name], nil
}

type recordingPublisher struct {
	actions []string
	err     error
}

func (p *recordingPublisher) PublishIntent(ctx context.Context, action string) error {
	if p.err != nil {
		return p.err
	}
	p.actions = append(p.actions, action)
	return nil
}

type captureProducer struct {
	topic string
	msg   models.MessageEnvelope
}

func (p *captureProducer) Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error {
	p.topic = topic
	p.msg = msg
	return nil
}

func (p *captureProducer) Close() error { return nil }

func newService(store SettingsStore, pub IntentPublisher) *Service {
	return NewService(store, pub, config.PermissionsConfig{}, logger.NopLogger())
}

func TestParseComponent(t *testing.T) {
	tests := []struct {
		in   string
		want Component
		ok   bool
	}{
		{in: "com.innermirror.app/com.innermirror.app.Listener", want: Component{"com.innermirror.app", "com.innermirror.app.Listener"}, ok: true},
		{in: "com.innermirror.app/.Listener", want: Component{"com.innermirror.app", "com.innermirror.app.Listener"}, ok: true},
		{in: "no-separator", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseComponent(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseComponentList(t *testing.T) {
	assert.Nil(t, ParseComponentList(""))
	got := ParseComponentList("a/.X:garbage:b/b.Y")
	require.Len(t, got, 2)
	assert.Equal(t, "a.X", got[0].Class)
	assert.Equal(t, "b", got[1].Package)
}

func TestNotificationAccessEnabled(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		setting string
		want    bool
	}{
		{name: "unset", setting: "", want: false},
		{name: "other packages only", setting: "com.other/.Listener:com.foo/com.foo.L", want: false},
		{name: "host listener present", setting: "com.other/.Listener:com.innermirror.app/.WhatsAppNotificationService", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mapStore{values: map[string]string{constants.SettingEnabledNotificationListeners: tt.setting}}
			got, err := newService(store, nil).NotificationAccessEnabled(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessibilityAccessEnabled(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{values: map[string]string{
		constants.SettingEnabledAccessibilityServices: "com.innermirror.app/.WhatsAppAccessibilityService",
	}}
	got, err := newService(store, nil).AccessibilityAccessEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, got)

	store.values[constants.SettingEnabledAccessibilityServices] = "com.innermirror.app/.OtherService"
	got, err = newService(store, nil).AccessibilityAccessEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestAccessChecks_NoStore(t *testing.T) {
	svc := newService(nil, nil)
	got, err := svc.NotificationAccessEnabled(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
	got, err = svc.AccessibilityAccessEnabled(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestAccessChecks_StoreError(t *testing.T) {
	svc := newService(&mapStore{err: errors.New("connection refused")}, nil)
	_, err := svc.NotificationAccessEnabled(context.Background())
	require.Error(t, err)
	assert.Equal(t, 503, apperrors.ToHTTPStatus(err))
}

func TestOpenSettings(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(nil, pub)

	require.NoError(t, svc.OpenNotificationSettings(context.Background()))
	require.NoError(t, svc.OpenAccessibilitySettings(context.Background()))
	assert.Equal(t, []string{
		constants.IntentNotificationListenerSettings,
		constants.IntentAccessibilitySettings,
	}, pub.actions)
}

func TestOpenSettings_Failures(t *testing.T) {
	err := newService(nil, nil).OpenNotificationSettings(context.Background())
	require.Error(t, err)

	err = newService(nil, &recordingPublisher{err: errors.New("down")}).OpenAccessibilitySettings(context.Background())
	require.Error(t, err)
	assert.Equal(t, 503, apperrors.ToHTTPStatus(err))
}

func TestBrokerIntentPublisher(t *testing.T) {
	producer := &captureProducer{}
	pub := NewBrokerIntentPublisher(producer, "device_settings_intents", constants.DefaultHostPackage)

	require.NoError(t, pub.PublishIntent(context.Background(), constants.IntentAccessibilitySettings))
	assert.Equal(t, "device_settings_intents", producer.topic)
	assert.NotEmpty(t, producer.msg.ID)
	assert.Equal(t, constants.IntentAccessibilitySettings, producer.msg.Payload["action"])
	assert.Equal(t, constants.DefaultHostPackage, producer.msg.Payload["package_name"])
}
