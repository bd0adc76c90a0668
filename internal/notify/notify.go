// Package notify posts desktop notifications, falling back to the log
// when no notification mechanism is available. Delivery is best effort:
// a notification that cannot be shown is never an error.
package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

const defaultTitle = "YouTube & Podcast Bot"

type Notifier struct {
	Title string

	// run executes the notification command, swapped out in tests.
	run func(name string, args ...string) error
}

func New() *Notifier {
	return &Notifier{
		Title: defaultTitle,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Notify shows msg as a desktop notification on macOS and logs it
// everywhere else, or when osascript fails.
func (n *Notifier) Notify(msg string) {
	title := n.Title
	if title == "" {
		title = defaultTitle
	}

	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", msg, title)
		if err := n.run("osascript", "-e", script); err == nil {
			return
		}
	}

	slog.Info("notification", "title", title, "message", msg)
}
