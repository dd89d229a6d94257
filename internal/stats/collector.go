package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/xBLACKSTONE/xKippo-lite/internal/parser"
)

const topN = 5

// counter is a frequency table that remembers first-insertion order so
// Top produces a stable ranking under ties.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// Top returns the n highest-count keys, ties broken by first insertion
func (c *counter) Top(n int) []string {
	ranked := make([]string, len(c.order))
	copy(ranked, c.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return c.counts[ranked[i]] > c.counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// window is one counter aggregate over a reporting horizon
type window struct {
	start time.Time
	date  string // YYYY-MM-DD of the window's day, daily window only

	connections      int
	loginAttempts    int
	successfulLogins int
	failedLogins     int
	commandsExecuted int
	downloads        int

	uniqueIPs map[string]struct{}

	usernames   *counter
	passwords   *counter
	commands    *counter
	ipAddresses *counter
}

func newWindow(now time.Time) *window {
	return &window{
		start:       now,
		date:        dateOf(now),
		uniqueIPs:   make(map[string]struct{}),
		usernames:   newCounter(),
		passwords:   newCounter(),
		commands:    newCounter(),
		ipAddresses: newCounter(),
	}
}

func dateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// Report is a point-in-time snapshot of one window, safe to hand to
// another goroutine.
type Report struct {
	Period           string
	Timestamp        time.Time
	StartTime        time.Time
	Connections      int
	UniqueIPs        int
	LoginAttempts    int
	SuccessfulLogins int
	FailedLogins     int
	CommandsExecuted int
	Downloads        int
	TopUsernames     []string
	TopPasswords     []string
	TopCommands      []string
	TopIPs           []string
}

// Collector aggregates parsed events into a rolling (process lifetime)
// window and a daily window. Both live behind a single mutex; Record,
// Snapshot and the report triggers all take it for their full
// duration so snapshots are never torn.
type Collector struct {
	mu      sync.Mutex
	rolling *window
	daily   *window

	interval       time.Duration
	lastReport     time.Time
	lastDailyFired string // date the daily trigger already fired for

	now  func() time.Time
	quit chan struct{}
	wg   sync.WaitGroup
}

// NewCollector creates a collector reporting at the given interval
func NewCollector(interval time.Duration) *Collector {
	c := &Collector{
		interval: interval,
		now:      time.Now,
		quit:     make(chan struct{}),
	}
	start := c.now()
	c.rolling = newWindow(start)
	c.daily = newWindow(start)
	return c
}

// Record updates both windows atomically with one event
func (c *Collector) Record(evt *parser.ParsedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.rollDailyLocked(now)

	apply(c.rolling, evt)
	apply(c.daily, evt)
}

// rollDailyLocked replaces the daily window when the wall-clock date
// has moved past the window's date. Caller must hold the lock.
func (c *Collector) rollDailyLocked(now time.Time) {
	if dateOf(now) != c.daily.date {
		c.daily = newWindow(now)
	}
}

func apply(w *window, evt *parser.ParsedEvent) {
	switch evt.Kind {
	case parser.KindConnection:
		w.connections++
		if evt.IP != "" {
			w.uniqueIPs[evt.IP] = struct{}{}
			w.ipAddresses.Add(evt.IP)
		}
	case parser.KindLogin:
		w.loginAttempts++
		if evt.Login != nil {
			w.usernames.Add(evt.Login.Username)
			w.passwords.Add(evt.Login.Password)
		}
		if evt.Login != nil && evt.Login.Succeeded {
			w.successfulLogins++
		} else {
			w.failedLogins++
		}
	case parser.KindCommand:
		w.commandsExecuted++
		if evt.Command != nil {
			w.commands.Add(evt.Command.Command)
		}
	case parser.KindDownload:
		w.downloads++
	case parser.KindUnknown:
		// Nothing to aggregate
	}
}

// Snapshot returns a consistent copy of one window. Period "daily"
// selects the daily window, anything else the rolling window.
func (c *Collector) Snapshot(period string) Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(period, c.now())
}

func (c *Collector) snapshotLocked(period string, now time.Time) Report {
	w := c.rolling
	if period == "daily" {
		w = c.daily
	}
	return Report{
		Period:           period,
		Timestamp:        now,
		StartTime:        w.start,
		Connections:      w.connections,
		UniqueIPs:        len(w.uniqueIPs),
		LoginAttempts:    w.loginAttempts,
		SuccessfulLogins: w.successfulLogins,
		FailedLogins:     w.failedLogins,
		CommandsExecuted: w.commandsExecuted,
		Downloads:        w.downloads,
		TopUsernames:     w.usernames.Top(topN),
		TopPasswords:     w.passwords.Top(topN),
		TopCommands:      w.commands.Top(topN),
		TopIPs:           w.ipAddresses.Top(topN),
	}
}

// Start launches the report loop. Reports are delivered to cb from a
// single goroutine.
func (c *Collector) Start(cb func(Report)) {
	c.mu.Lock()
	c.lastReport = c.now()
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-c.quit:
				return
			case <-ticker.C:
				for _, r := range c.tick(c.now()) {
					cb(r)
				}
			}
		}
	}()
}

// tick evaluates the periodic and daily triggers at the given instant
// and returns the reports due.
func (c *Collector) tick(now time.Time) []Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []Report

	// Periodic report: full-session totals tagged "5min". The tag is
	// historical; the window is deliberately not truncated to five
	// minutes.
	if now.Sub(c.lastReport) >= c.interval &&
		(c.rolling.connections > 0 || c.rolling.loginAttempts > 0) {
		due = append(due, c.snapshotLocked("5min", now))
		c.lastReport = now
	}

	// Daily report: once per date, within the first five minutes past
	// midnight, only if the day saw activity. The daily window resets
	// as soon as the report is taken.
	today := dateOf(now)
	if now.Hour() == 0 && now.Minute() < 5 && c.lastDailyFired != today &&
		(c.daily.connections > 0 || c.daily.loginAttempts > 0) {
		due = append(due, c.snapshotLocked("daily", now))
		c.daily = newWindow(now)
		c.lastDailyFired = today
	}

	return due
}

// Stop terminates the report loop
func (c *Collector) Stop() {
	close(c.quit)
	c.wg.Wait()
}
