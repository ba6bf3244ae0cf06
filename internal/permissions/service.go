// Package permissions answers the host's questions about whether the
// capture components are enabled, and opens the matching settings screens.
package permissions

import (
	"context"

	"mirror/internal/config"
	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/pkg/errors"
)

type Service struct {
	store   SettingsStore
	intents IntentPublisher
	cfg     config.PermissionsConfig
	logger  logger.Logger
}

// NewService accepts a nil store (every check reports false) and a nil
// publisher (open requests fail).
func NewService(store SettingsStore, intents IntentPublisher, cfg config.PermissionsConfig, log logger.Logger) *Service {
	if cfg.PackageName == "" {
		cfg.PackageName = constants.DefaultHostPackage
	}
	if cfg.AccessibilityServiceClass == "" {
		cfg.AccessibilityServiceClass = constants.DefaultAccessibilityServiceClass
	}
	return &Service{store: store, intents: intents, cfg: cfg, logger: log}
}

// NotificationAccessEnabled is true when any enabled notification listener
// belongs to the host package.
func (s *Service) NotificationAccessEnabled(ctx context.Context) (bool, error) {
	components, err := s.components(ctx, constants.SettingEnabledNotificationListeners)
	if err != nil {
		return false, err
	}
	for _, c := range components {
		if c.Package == s.cfg.PackageName {
			return true, nil
		}
	}
	return false, nil
}

// AccessibilityAccessEnabled is true when the capture accessibility service
// class is among the enabled services.
func (s *Service) AccessibilityAccessEnabled(ctx context.Context) (bool, error) {
	components, err := s.components(ctx, constants.SettingEnabledAccessibilityServices)
	if err != nil {
		return false, err
	}
	for _, c := range components {
		if c.Class == s.cfg.AccessibilityServiceClass {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) components(ctx context.Context, setting string) ([]Component, error) {
	if s.store == nil {
		return nil, nil
	}
	value, err := s.store.Get(ctx, setting)
	if err != nil {
		s.logger.WarnwCtx(ctx, "Failed to read secure setting", "setting", setting, "error", err)
		return nil, errors.ErrServiceUnavailable.WithCause(err)
	}
	return ParseComponentList(value), nil
}

func (s *Service) OpenNotificationSettings(ctx context.Context) error {
	return s.open(ctx, constants.IntentNotificationListenerSettings)
}

func (s *Service) OpenAccessibilitySettings(ctx context.Context) error {
	return s.open(ctx, constants.IntentAccessibilitySettings)
}

func (s *Service) open(ctx context.Context, action string) error {
	if s.intents == nil {
		return errors.ErrServiceUnavailable.WithDetail("message", "settings intents are not configured")
	}
	if err := s.intents.PublishIntent(ctx, action); err != nil {
		s.logger.ErrorwCtx(ctx, "Failed to request settings screen", "action", action, "error", err)
		return errors.ErrServiceUnavailable.WithCause(err)
	}
	s.logger.InfowCtx(ctx, "Requested settings screen", "action", action)
	return nil
}
