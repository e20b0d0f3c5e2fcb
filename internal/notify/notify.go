// Package notify shows native desktop notifications when a browser-driven
// command finishes or needs the user to log in.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

const appName = "Engineering Assistant"

// run executes a prepared notification command.
var run = func(cmd *exec.Cmd) error { return cmd.Run() }

// Send displays a native OS notification. Platforms without a
// notification tool are skipped silently; a failing tool is logged.
func Send(title, body string) {
	cmd := command(runtime.GOOS, sanitize(title), sanitize(body))
	if cmd == nil {
		return
	}
	if err := run(cmd); err != nil {
		logging.Component("notify").Debug("notification failed", "error", err)
	}
}

func command(goos, title, body string) *exec.Cmd {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		return exec.Command("osascript", "-e", script)

	case "linux":
		return exec.Command("notify-send", "--app-name="+appName, title, body)

	case "windows":
		ps := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$textNodes = $template.GetElementsByTagName('text')
$textNodes.Item(0).AppendChild($template.CreateTextNode('%s')) > $null
$textNodes.Item(1).AppendChild($template.CreateTextNode('%s')) > $null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('%s').Show($toast)
`, title, body, appName)
		return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", ps)
	}
	return nil
}

// sanitize strips characters that break the script quoting above and
// bounds the length.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "'", "’")
	s = strings.ReplaceAll(s, "\\", "")
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 256 {
		s = string(r[:256]) + "..."
	}
	return s
}
