package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LinesIngested counts raw lines read from the honeypot log
	LinesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xkippo_lines_ingested_total",
		Help: "Raw log lines read from the honeypot log file",
	})

	// ParseFailures counts lines that could not be classified
	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xkippo_parse_failures_total",
		Help: "Log lines discarded as unparseable",
	})

	// EventsParsed counts classified events by kind
	EventsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xkippo_events_parsed_total",
		Help: "Parsed events by kind",
	}, []string{"kind"})

	// MessagesSent counts PRIVMSGs written to the IRC connection
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xkippo_irc_messages_sent_total",
		Help: "Messages delivered to the IRC channel",
	})

	// Registrations counts successful IRC registrations, including
	// reconnects after a dropped connection
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xkippo_irc_registrations_total",
		Help: "Successful IRC session registrations",
	})

	// ReportsGenerated counts stats reports by period tag
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xkippo_stats_reports_total",
		Help: "Statistics reports emitted, by period",
	}, []string{"period"})
)

// StartServer exposes /metrics on the given address. Blocks.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
