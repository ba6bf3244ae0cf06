package main

import (
	"github.com/coreos/go-systemd/v22/daemon"

	"mirror/internal/capture"
	"mirror/internal/config"
	"mirror/internal/logger"
)

type systemdNotifier struct {
	enabled bool
	logger  logger.Logger
}

func newSystemdNotifier(cfg config.SystemdConfig, log logger.Logger) *systemdNotifier {
	return &systemdNotifier{enabled: cfg.Notify, logger: log}
}

// stateChanged reports READY once connected and STOPPING on destroy. Outside
// a notify-type unit SdNotify returns false with no error.
func (n *systemdNotifier) stateChanged(state capture.State) {
	if !n.enabled {
		return
	}

	var msg string
	switch state {
	case capture.StateConnected:
		msg = daemon.SdNotifyReady
	case capture.StateDestroyed:
		msg = daemon.SdNotifyStopping
	default:
		return
	}

	sent, err := daemon.SdNotify(false, msg)
	if err != nil {
		n.logger.Warnw("Failed to notify systemd", "state", state.String(), "error", err)
		return
	}
	n.logger.Debugw("systemd notified", "state", state.String(), "sent", sent)
}
