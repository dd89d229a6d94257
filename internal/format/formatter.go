package format

import (
	"fmt"
	"strings"

	"github.com/xBLACKSTONE/xKippo-lite/internal/parser"
	"github.com/xBLACKSTONE/xKippo-lite/internal/stats"
)

// mIRC control codes
const (
	reset = "\x0f"
	bold  = "\x02"

	green     = "\x0303"
	red       = "\x0304"
	purple    = "\x0306"
	orange    = "\x0307"
	yellow    = "\x0308"
	cyan      = "\x0311"
	lightBlue = "\x0312"
	grey      = "\x0314"
)

// Formatter renders typed events and stats reports as IRC messages.
// Optional fields that were never extracted render as the literal
// word "unknown".
type Formatter struct {
	useColors bool
}

// NewFormatter creates a formatter, optionally with mIRC color codes
func NewFormatter(useColors bool) *Formatter {
	return &Formatter{useColors: useColors}
}

// FormatEvent renders one event. The location string is appended to
// connection messages when non-empty; pass "" when geolocation is
// unavailable.
func (f *Formatter) FormatEvent(evt *parser.ParsedEvent, location string) string {
	switch evt.Kind {
	case parser.KindLogin:
		return f.formatLogin(evt)
	case parser.KindCommand:
		return f.formatCommand(evt)
	case parser.KindConnection:
		return f.formatConnection(evt, location)
	case parser.KindDownload:
		return f.formatDownload(evt)
	case parser.KindUnknown:
		return ""
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func (f *Formatter) formatLogin(evt *parser.ParsedEvent) string {
	user, pass, succeeded := "", "", false
	if evt.Login != nil {
		user = evt.Login.Username
		pass = evt.Login.Password
		succeeded = evt.Login.Succeeded
	}

	status := "FAILED"
	if succeeded {
		status = "SUCCESS"
	}

	if !f.useColors {
		return fmt.Sprintf("LOGIN %s: %s attempted to login as '%s' with password '%s'",
			status, orUnknown(evt.IP), orUnknown(user), orUnknown(pass))
	}

	statusColor := red
	if succeeded {
		statusColor = green
	}
	return fmt.Sprintf("%s%sLOGIN%s %s%s%s: %s%s%s attempted to login as '%s%s%s' with password '%s%s%s'",
		bold, yellow, reset,
		statusColor, status, reset,
		lightBlue, orUnknown(evt.IP), reset,
		orange, orUnknown(user), reset,
		orange, orUnknown(pass), reset)
}

func (f *Formatter) formatCommand(evt *parser.ParsedEvent) string {
	cmd := ""
	if evt.Command != nil {
		cmd = evt.Command.Command
	}

	if !f.useColors {
		return fmt.Sprintf("COMMAND: %s executed '%s' (session: %s)",
			orUnknown(evt.IP), orUnknown(cmd), orUnknown(evt.SessionID))
	}
	return fmt.Sprintf("%s%sCOMMAND%s: %s%s%s executed '%s%s%s' (session: %s%s%s)",
		bold, yellow, reset,
		lightBlue, orUnknown(evt.IP), reset,
		cyan, orUnknown(cmd), reset,
		grey, orUnknown(evt.SessionID), reset)
}

func (f *Formatter) formatConnection(evt *parser.ParsedEvent, location string) string {
	suffix := ""
	if location != "" {
		suffix = fmt.Sprintf(" [%s]", location)
	}

	if !f.useColors {
		return fmt.Sprintf("CONNECTION: New connection from %s%s (session: %s)",
			orUnknown(evt.IP), suffix, orUnknown(evt.SessionID))
	}
	return fmt.Sprintf("%s%sCONNECTION%s: New connection from %s%s%s%s (session: %s%s%s)",
		bold, yellow, reset,
		lightBlue, orUnknown(evt.IP), reset, suffix,
		grey, orUnknown(evt.SessionID), reset)
}

func (f *Formatter) formatDownload(evt *parser.ParsedEvent) string {
	if !f.useColors {
		return fmt.Sprintf("DOWNLOAD: %s downloaded file", orUnknown(evt.IP))
	}
	return fmt.Sprintf("%s%sDOWNLOAD%s: %s%s%s downloaded file",
		bold, yellow, reset,
		lightBlue, orUnknown(evt.IP), reset)
}

// FormatStats renders a stats report as a single summary line
func (f *Formatter) FormatStats(r stats.Report) string {
	topUsers := strings.Join(top3(r.TopUsernames), ", ")
	topPasswords := strings.Join(top3(r.TopPasswords), ", ")

	if !f.useColors {
		return fmt.Sprintf("STATS (%s): Connections: %d | Unique IPs: %d | Top usernames: %s | Top passwords: %s",
			r.Period, r.Connections, r.UniqueIPs, topUsers, topPasswords)
	}
	return fmt.Sprintf("%s%sSTATS (%s)%s: %sConnections:%s %s%d%s | %sUnique IPs:%s %s%d%s | %sTop usernames:%s %s%s%s | %sTop passwords:%s %s%s%s",
		bold, purple, r.Period, reset,
		bold, reset, green, r.Connections, reset,
		bold, reset, green, r.UniqueIPs, reset,
		bold, reset, orange, topUsers, reset,
		bold, reset, orange, topPasswords, reset)
}

func top3(items []string) []string {
	if len(items) > 3 {
		return items[:3]
	}
	return items
}
