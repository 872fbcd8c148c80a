package notifications

// Alert levels understood by every notifier.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelSuccess = "success"
)

// Notifier delivers risk alerts to an external channel.
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(level, message string) error
}
