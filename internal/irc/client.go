package irc

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xBLACKSTONE/xKippo-lite/internal/metrics"
)

// State is the client's session state
type State string

const (
	StateDisconnected State = "disconnected"
	StateRegistering  State = "registering"
	StateReady        State = "ready"
)

const (
	readTimeout      = 180 * time.Second
	dialTimeout      = 30 * time.Second
	queueSize        = 1024
	sendPause        = 500 * time.Millisecond
	popTimeout       = 1 * time.Second
	backoffFloor     = 60 * time.Second
	backoffCeiling   = 300 * time.Second
	registerAttempts = 100
	identifyPause    = 2 * time.Second
)

// successNumerics are replies that mean registration went through:
// 001 welcome, the MOTD markers, and the usual post-welcome numerics
// some servers send before 001 reaches us.
var successNumerics = map[string]bool{
	"001": true, "002": true, "003": true, "004": true, "005": true,
	"251": true, "255": true, "265": true, "266": true,
	"372": true, "375": true, "376": true, "422": true,
}

var errNotConnected = errors.New("not connected")

// Config holds the connection settings for an IRC session
type Config struct {
	Server   string
	Port     int
	UseTLS   bool
	Nickname string
	Channel  string
	Password string // NickServ, optional
}

// Client maintains a registered IRC session and relays queued messages
// to a channel at a bounded rate. It reconnects with exponential
// backoff after any failure.
type Client struct {
	cfg     Config
	channel string

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	state  State
	nick   string

	queue    chan string
	backoff  time.Duration
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// dial is swappable for tests
	dial func() (net.Conn, error)
}

// NewClient creates an IRC client. Start must be called to connect.
func NewClient(cfg Config) *Client {
	channel := cfg.Channel
	if !strings.HasPrefix(channel, "#") {
		channel = "#" + channel
	}
	c := &Client{
		cfg:     cfg,
		channel: channel,
		state:   StateDisconnected,
		nick:    cfg.Nickname,
		queue:   make(chan string, queueSize),
		backoff: backoffFloor,
		quit:    make(chan struct{}),
	}
	c.dial = c.dialServer
	return c
}

// Start launches the send and receive loops
func (c *Client) Start() {
	c.wg.Add(2)
	go c.sendLoop()
	go c.recvLoop()
}

// Stop sends a best-effort QUIT and tears the connection down
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
		_ = c.sendRaw("QUIT :shutting down")
		c.markDisconnected()
		c.wg.Wait()
	})
}

// Send queues a message for the channel. Messages are never dropped
// once accepted; the caller blocks when the queue is full.
func (c *Client) Send(message string) {
	select {
	case c.queue <- message:
	case <-c.quit:
	}
}

// State returns the current session state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nick returns the nickname currently in use, which may carry a
// disambiguating suffix after a collision.
func (c *Client) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

func (c *Client) dialServer() (net.Conn, error) {
	addr := net.JoinHostPort(c.cfg.Server, strconv.Itoa(c.cfg.Port))
	if c.cfg.UseTLS {
		return tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, nil)
	}
	return net.DialTimeout("tcp", addr, dialTimeout)
}

// connect dials, registers, authenticates and joins. Any failure
// leaves the client Disconnected.
func (c *Client) connect() error {
	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.state = StateRegistering
	c.mu.Unlock()

	if err := c.register(); err != nil {
		c.markDisconnected()
		return err
	}

	c.setState(StateReady)
	metrics.Registrations.Inc()

	if c.cfg.Password != "" {
		_ = c.sendRaw("PRIVMSG NickServ :identify " + c.cfg.Password)
		time.Sleep(identifyPause) // let services process before joining
	}
	if err := c.sendRaw("JOIN " + c.channel); err != nil {
		return err
	}

	c.Send("xKippo-lite connected. Now monitoring honeypot activity.")
	return nil
}

// register performs the NICK/USER handshake and drives the reply state
// machine until the server confirms the session or the read budget
// runs out.
func (c *Client) register() error {
	if err := c.sendIdentity(); err != nil {
		return err
	}

	for i := 0; i < registerAttempts; i++ {
		line, err := c.readLine()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return fmt.Errorf("registration read failed: %w", err)
		}
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "PING"):
			if err := c.sendRaw(strings.Replace(line, "PING", "PONG", 1)); err != nil {
				return err
			}
		case successNumerics[numericReply(line)]:
			return nil
		case isCapPrompt(line):
			if err := c.sendRaw("CAP END"); err != nil {
				return err
			}
		case numericReply(line) == "433":
			c.mu.Lock()
			c.nick += "_"
			nick := c.nick
			c.mu.Unlock()
			log.Printf("[IRC] Nickname in use, retrying as %s", nick)
			if err := c.sendIdentity(); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("no welcome reply within %d reads", registerAttempts)
}

func (c *Client) sendIdentity() error {
	nick := c.Nick()
	if err := c.sendRaw("NICK " + nick); err != nil {
		return err
	}
	return c.sendRaw(fmt.Sprintf("USER %s 0 * :%s", nick, nick))
}

// sendLoop drains the outbound queue one message at a time with a
// flood-protection pause. While disconnected it owns reconnection.
func (c *Client) sendLoop() {
	defer c.wg.Done()
	for c.running() {
		if c.State() != StateReady {
			if err := c.connect(); err != nil {
				delay := c.nextBackoff()
				log.Printf("[IRC] Connection to %s failed: %v (retrying in %s)", c.cfg.Server, err, delay)
				if !c.sleep(delay) {
					return
				}
			} else {
				c.resetBackoff()
				log.Printf("[IRC] Registered as %s, joined %s", c.Nick(), c.channel)
			}
			continue
		}

		select {
		case msg := <-c.queue:
			if err := c.sendRaw("PRIVMSG " + c.channel + " :" + msg); err != nil {
				log.Printf("[IRC] Send failed: %v", err)
				continue
			}
			metrics.MessagesSent.Inc()
			if !c.sleep(sendPause) {
				return
			}
		case <-time.After(popTimeout):
		case <-c.quit:
			return
		}
	}
}

// recvLoop answers keep-alive probes and discards everything else.
// A read timeout just loops; a real error converges on Disconnected
// and leaves reconnection to the send loop.
func (c *Client) recvLoop() {
	defer c.wg.Done()
	for c.running() {
		if c.State() != StateReady {
			if !c.sleep(1 * time.Second) {
				return
			}
			continue
		}

		line, err := c.readLine()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if c.running() {
				log.Printf("[IRC] Read failed: %v", err)
			}
			c.markDisconnected()
			continue
		}

		if strings.HasPrefix(line, "PING") {
			_ = c.sendRaw(strings.Replace(line, "PING", "PONG", 1))
		}
	}
}

// sendRaw writes one CR-LF terminated command. A write error tears the
// connection down.
func (c *Client) sendRaw(line string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		c.markDisconnected()
		return err
	}
	return nil
}

// readLine reads one line under the read deadline. The deadline keeps
// a silent peer from blocking the receive loop forever.
func (c *Client) readLine() (string, error) {
	c.mu.Lock()
	conn := c.conn
	reader := c.reader
	c.mu.Unlock()
	if conn == nil || reader == nil {
		return "", errNotConnected
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// markDisconnected closes the connection and resets state. Safe to
// call from both loops; closing an already-closed connection is a
// no-op.
func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
	c.state = StateDisconnected
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// nextBackoff returns the delay to sleep now and doubles the stored
// delay up to the ceiling.
func (c *Client) nextBackoff() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.backoff
	c.backoff *= 2
	if c.backoff > backoffCeiling {
		c.backoff = backoffCeiling
	}
	return d
}

func (c *Client) resetBackoff() {
	c.mu.Lock()
	c.backoff = backoffFloor
	c.mu.Unlock()
}

func (c *Client) running() bool {
	select {
	case <-c.quit:
		return false
	default:
		return true
	}
}

// sleep waits for d or until Stop. Returns false when stopping.
func (c *Client) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-c.quit:
		return false
	}
}

// numericReply extracts the command token from a server reply of the
// form ":prefix 001 nick :text".
func numericReply(line string) string {
	fields := strings.Fields(line)
	if len(fields) >= 2 && strings.HasPrefix(fields[0], ":") {
		return fields[1]
	}
	return ""
}

func isCapPrompt(line string) bool {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "CAP" && i <= 1 {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
