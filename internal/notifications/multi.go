package notifications

import (
	"fmt"
	"strings"
)

// MultiNotifier fans an alert out to every configured channel. A failing
// channel does not stop delivery to the others.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier combines notifiers into one. Nil entries are skipped.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	kept := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return &MultiNotifier{notifiers: kept}
}

func (m *MultiNotifier) SendAlert(level, message string) error {
	var failures []string
	for _, n := range m.notifiers {
		if err := n.SendAlert(level, message); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d notifiers failed: %s",
			len(failures), len(m.notifiers), strings.Join(failures, "; "))
	}
	return nil
}
