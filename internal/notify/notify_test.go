package notify

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifyUsesOsascriptOnDarwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("osascript path only taken on macOS")
	}

	var gotName string
	var gotArgs []string
	n := New()
	n.run = func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	n.Notify("hello")

	assert.Equal(t, "osascript", gotName)
	assert.Contains(t, gotArgs[1], "hello")
	assert.Contains(t, gotArgs[1], defaultTitle)
}

func TestNotifyNeverPanicsOnCommandFailure(t *testing.T) {
	n := New()
	n.run = func(name string, args ...string) error {
		return errors.New("osascript missing")
	}

	assert.NotPanics(t, func() { n.Notify("hello") })
}

func TestNotifyDefaultTitle(t *testing.T) {
	n := &Notifier{run: func(string, ...string) error { return nil }}
	assert.NotPanics(t, func() { n.Notify("no title set") })
}
