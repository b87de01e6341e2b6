// Package notify raises desktop notifications when a training run finishes.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/session"
)

// AppName is the title prefix of every notification.
const AppName = "Topic Modeler"

// Desktop implements session.Notifier with OS notifications.
type Desktop struct {
	enabled bool
	notify  func(title, message string) error
	alert   func(title, message string) error
}

// NewDesktop creates a notifier. A disabled notifier only logs.
func NewDesktop(enabled bool) *Desktop {
	return &Desktop{
		enabled: enabled,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// Notify raises a notification for Ready and Failed runs and ignores other phases.
func (d *Desktop) Notify(status session.Status) error {
	var title, message string
	var send func(string, string) error

	switch status.Phase {
	case session.Ready:
		title = AppName + ": " + status.Message
		message = fmt.Sprintf("%d comments in %d requested topics from %s", status.Rows, status.NrTopics, status.Source)
		send = d.notify
	case session.Failed:
		title = AppName + ": " + status.Message
		message = status.Error
		send = d.alert
	default:
		return nil
	}

	if !d.enabled {
		logger.Debugf("notify: %s: %s (disabled)", title, message)
		return nil
	}
	if err := send(title, message); err != nil {
		return fmt.Errorf("failed to send OS notification: %w", err)
	}
	return nil
}
