package browser

import (
	"github.com/chromedp/cdproto/emulation"

	"github.com/ardiustech/eng-ai-assistant/internal/logging"
)

// sensitiveCommands are raw CDP methods this package sends that change how
// the browser presents itself; sending one is logged at warn level.
var sensitiveCommands = map[string]bool{
	emulation.CommandSetUserAgentOverride: true,
}

// auditCDP records a raw CDP command sent outside Playwright's own API.
func auditCDP(pageID, method string) {
	log := logging.Component("cdp")
	attrs := []any{"page", truncateID(pageID), "method", method}
	if sensitiveCommands[method] {
		log.Warn("cdp_sensitive_command", attrs...)
	} else {
		log.Debug("cdp_command", attrs...)
	}
}

func truncateID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}
