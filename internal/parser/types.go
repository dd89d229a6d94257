package parser

import "time"

// EventKind classifies a honeypot log entry
type EventKind string

const (
	KindLogin      EventKind = "login"
	KindCommand    EventKind = "command"
	KindConnection EventKind = "connection"
	KindDownload   EventKind = "download"
	KindUnknown    EventKind = "unknown"
)

// LoginDetails holds fields extracted from a login attempt line
type LoginDetails struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Succeeded bool   `json:"succeeded"`
}

// CommandDetails holds the command text from a CMD line
type CommandDetails struct {
	Command string `json:"command"`
}

// ParsedEvent represents a normalized event from a honeypot log line.
// Kind is always set. Login and Command are non-nil only when the
// kind-specific extraction succeeded, so a consumer never sees
// placeholder values standing in for real data.
type ParsedEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	IP        string          `json:"ip,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Kind      EventKind       `json:"kind"`
	Raw       string          `json:"raw"`
	Login     *LoginDetails   `json:"login,omitempty"`
	Command   *CommandDetails `json:"command,omitempty"`
}
