package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/xBLACKSTONE/xKippo-lite/internal/audit"
	"github.com/xBLACKSTONE/xKippo-lite/internal/config"
	"github.com/xBLACKSTONE/xKippo-lite/internal/format"
	"github.com/xBLACKSTONE/xKippo-lite/internal/geo"
	"github.com/xBLACKSTONE/xKippo-lite/internal/ingest"
	"github.com/xBLACKSTONE/xKippo-lite/internal/irc"
	"github.com/xBLACKSTONE/xKippo-lite/internal/metrics"
	"github.com/xBLACKSTONE/xKippo-lite/internal/parser"
	"github.com/xBLACKSTONE/xKippo-lite/internal/stats"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	logFile := flag.String("log-file", "", "Path to Cowrie log file")
	ircServer := flag.String("irc-server", "", "IRC server hostname")
	ircPort := flag.Int("irc-port", 0, "IRC server port")
	ircNickname := flag.String("irc-nickname", "", "IRC nickname")
	ircChannel := flag.String("irc-channel", "", "IRC channel")
	ircPassword := flag.String("irc-password", "", "NickServ password")
	noTLS := flag.Bool("no-ssl", false, "Disable TLS for the IRC connection")
	noColors := flag.Bool("no-colors", false, "Disable IRC color codes in messages")
	statsInterval := flag.Int("stats-interval", 0, "Seconds between statistics reports")
	debug := flag.Bool("debug", false, "Log parse failures and other diagnostics")
	flag.Parse()

	// Config file first, flags override
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if *logFile != "" {
		cfg.Input.LogPath = *logFile
	}
	if *ircServer != "" {
		cfg.IRC.Server = *ircServer
	}
	if *ircPort != 0 {
		cfg.IRC.Port = *ircPort
	}
	if *ircNickname != "" {
		cfg.IRC.Nickname = *ircNickname
	}
	if *ircChannel != "" {
		cfg.IRC.Channel = *ircChannel
	}
	if *ircPassword != "" {
		cfg.IRC.Password = *ircPassword
	}
	if *noTLS {
		off := false
		cfg.IRC.UseTLS = &off
	}
	if *noColors {
		off := false
		cfg.IRC.UseColors = &off
	}
	if *statsInterval != 0 {
		cfg.Stats.IntervalSeconds = *statsInterval
	}
	if *debug {
		cfg.Output.Debug = true
	}

	// The one startup hard stop
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Printf("Starting xKippo-lite...\n")
	fmt.Printf("Monitoring: %s\n", cfg.Input.LogPath)
	fmt.Printf("Relaying to: %s:%d %s\n", cfg.IRC.Server, cfg.IRC.Port, cfg.IRC.Channel)

	if cfg.Metrics.Enabled {
		go func() {
			log.Printf("[METRICS] Starting on %s", cfg.Metrics.Listen)
			if err := metrics.StartServer(cfg.Metrics.Listen); err != nil {
				log.Printf("[METRICS] Failed to start: %v", err)
			}
		}()
	}

	locator := geo.NewLocator(cfg.Geo.DatabasePath)
	defer locator.Close()

	var auditLogger *audit.Logger
	if cfg.Output.AuditLogPath != "" {
		auditLogger = audit.NewLogger(cfg.Output.AuditLogPath)
	}

	cowrieParser := parser.NewCowrieParser()
	cowrieParser.Debug = cfg.Output.Debug

	formatter := format.NewFormatter(*cfg.IRC.UseColors)

	client := irc.NewClient(irc.Config{
		Server:   cfg.IRC.Server,
		Port:     cfg.IRC.Port,
		UseTLS:   *cfg.IRC.UseTLS,
		Nickname: cfg.IRC.Nickname,
		Channel:  cfg.IRC.Channel,
		Password: cfg.IRC.Password,
	})
	client.Start()

	collector := stats.NewCollector(time.Duration(cfg.Stats.IntervalSeconds) * time.Second)
	collector.Start(func(r stats.Report) {
		metrics.ReportsGenerated.WithLabelValues(r.Period).Inc()
		client.Send(formatter.FormatStats(r))
	})

	tailer := ingest.NewFileTailer(cfg.Input.LogPath)
	lines, err := tailer.Start()
	if err != nil {
		log.Fatalf("Failed to start tailer: %v", err)
	}

	// Coordinator: raw lines -> typed events -> {stats, audit, IRC}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for line := range lines {
			metrics.LinesIngested.Inc()

			evt := cowrieParser.Parse(line.Content)
			if evt == nil {
				metrics.ParseFailures.Inc()
				continue
			}
			metrics.EventsParsed.WithLabelValues(string(evt.Kind)).Inc()

			collector.Record(evt)

			if auditLogger != nil {
				if err := auditLogger.LogEvent(evt); err != nil {
					log.Printf("[AUDIT] Failed to write event: %v", err)
				}
			}

			var location string
			if evt.Kind == parser.KindConnection && evt.IP != "" {
				location = locator.LocationString(evt.IP)
			}
			if msg := formatter.FormatEvent(evt, location); msg != "" {
				client.Send(msg)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	tailer.Stop()
	client.Stop()
	collector.Stop()
	wg.Wait()
	fmt.Println("Shutdown complete.")
}
