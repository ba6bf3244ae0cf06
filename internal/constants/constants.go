package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	ServiceName = "capture-service"
)

const (
	PackageWhatsApp         = "com.whatsapp"
	PackageWhatsAppBusiness = "com.whatsapp.w4b"
)

const (
	DefaultNotificationTopic  = "os_notifications"
	DefaultAccessibilityTopic = "os_accessibility_events"
	DefaultOutputTopic        = "whatsapp_accessibility"
	DefaultSettingsTopic      = "settings_intents"
)

const (
	PipelineNotification  = "notification"
	PipelineAccessibility = "accessibility"
)

const (
	EventWindowStateChanged   = "window_state_changed"
	EventWindowContentChanged = "window_content_changed"
	EventViewScrolled         = "view_scrolled"
)

const (
	ChannelNotifications = "whatsapp_notifications"
	ChannelPermissions   = "permissions"
	ChannelAccessibility = "whatsapp_accessibility"
)

const (
	MethodCheckNotificationAccess   = "checkNotificationAccess"
	MethodOpenNotificationSettings  = "openNotificationSettings"
	MethodCheckAccessibilityAccess  = "checkAccessibilityAccess"
	MethodOpenAccessibilitySettings = "openAccessibilitySettings"
	MethodOnWhatsAppMessage         = "onWhatsAppMessage"
)

const (
	RecordTypeWhatsApp = "whatsapp"
	UnknownSender      = "Unknown"
)

const (
	DefaultDedupMaxEntries    = 1000
	DefaultSenderMaxDepth     = 5
	DefaultTimestampMaxDepth  = 3
	DefaultMinBubbleTextLen   = 10
	MinMessageTextLen         = 3
	MaxSenderLen              = 50
	DefaultNotificationBudget = 100 * time.Millisecond
)

const (
	SettingsKeyPrefix                   = "settings:secure:"
	SettingEnabledNotificationListeners = "enabled_notification_listeners"
	SettingEnabledAccessibilityServices = "enabled_accessibility_services"
)

const (
	DefaultHostPackage               = "com.innermirror.app"
	DefaultAccessibilityServiceClass = "com.innermirror.app.WhatsAppAccessibilityService"
	DefaultNotificationListenerClass = "com.innermirror.app.WhatsAppNotificationService"
)

const (
	IntentNotificationListenerSettings = "android.settings.ACTION_NOTIFICATION_LISTENER_SETTINGS"
	IntentAccessibilitySettings        = "android.settings.ACCESSIBILITY_SETTINGS"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	ClassifierHeuristic = "heuristic"
	ClassifierCEL       = "cel"
)

const (
	TransportKafka     = "kafka"
	TransportWebSocket = "websocket"
)

const (
	HashNone   = "none"
	HashMD5    = "md5"
	HashSHA256 = "sha256"
)
