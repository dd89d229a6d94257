package parser

import (
	"log"
	"regexp"
	"strings"
	"time"
)

// timestampLayout is the fixed Cowrie log prefix. Fractional seconds
// must be exactly six digits; anything else is a hard parse failure.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// CowrieParser extracts typed events from Cowrie honeypot log lines
type CowrieParser struct {
	// Pre-compiled regexes
	reLogin   *regexp.Regexp
	reCmd     *regexp.Regexp
	reSession *regexp.Regexp
	reIP      *regexp.Regexp

	// Debug controls diagnostic logging of parse failures
	Debug bool
}

// NewCowrieParser creates a new Cowrie log parser
func NewCowrieParser() *CowrieParser {
	return &CowrieParser{
		// login attempt [b'root'/b'123456'] failed
		reLogin: regexp.MustCompile(`login attempt \[([^/]+)/([^\]]+)\] (succeeded|failed)`),
		// CMD: cat /proc/cpuinfo
		reCmd: regexp.MustCompile(`CMD: (.+)`),
		// [session: ec0fe607df83]
		reSession: regexp.MustCompile(`\[session: ([^\]]+)\]`),
		// 35.240.141.162 or 35.240.141.162:56162 (port dropped)
		reIP: regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})(?::\d+)?`),
	}
}

// Parse classifies a single log line. It returns nil for lines that
// cannot be parsed; callers must skip those silently.
func (p *CowrieParser) Parse(line string) *ParsedEvent {
	zIdx := strings.IndexByte(line, 'Z')
	if zIdx == -1 {
		p.debugf("no timestamp terminator in line: %q", line)
		return nil
	}

	ts, err := time.Parse(timestampLayout, line[:zIdx+1])
	if err != nil {
		p.debugf("bad timestamp in line: %q: %v", line, err)
		return nil
	}

	evt := &ParsedEvent{
		Timestamp: ts,
		Kind:      p.classify(line),
		Raw:       line,
	}

	if m := p.reIP.FindStringSubmatch(line); m != nil {
		evt.IP = m[1]
	}
	if m := p.reSession.FindStringSubmatch(line); m != nil {
		evt.SessionID = m[1]
	}

	switch evt.Kind {
	case KindLogin:
		if m := p.reLogin.FindStringSubmatch(line); m != nil {
			evt.Login = &LoginDetails{
				Username:  stripDecoration(m[1]),
				Password:  stripDecoration(m[2]),
				Succeeded: m[3] == "succeeded",
			}
		}
	case KindCommand:
		if m := p.reCmd.FindStringSubmatch(line); m != nil {
			evt.Command = &CommandDetails{Command: m[1]}
		}
	case KindConnection, KindDownload, KindUnknown:
		// No further extraction for these kinds
	}

	return evt
}

// classify determines the event kind by substring presence, first
// match wins.
func (p *CowrieParser) classify(line string) EventKind {
	switch {
	case strings.Contains(line, "login attempt"):
		return KindLogin
	case strings.Contains(line, "CMD:"):
		return KindCommand
	case strings.Contains(line, "New connection"):
		return KindConnection
	case strings.Contains(line, "SCP") || strings.Contains(line, "SFTP") ||
		strings.Contains(line, "wget") || strings.Contains(line, "curl"):
		return KindDownload
	default:
		return KindUnknown
	}
}

// stripDecoration removes Python byte-string and quote wrapping, e.g.
// b'root' -> root, "admin" -> admin.
func stripDecoration(s string) string {
	if strings.HasPrefix(s, "b'") || strings.HasPrefix(s, `b"`) {
		s = s[1:]
	}
	return strings.Trim(s, `'"`)
}

func (p *CowrieParser) debugf(format string, args ...interface{}) {
	if p.Debug {
		log.Printf("[PARSER] "+format, args...)
	}
}
