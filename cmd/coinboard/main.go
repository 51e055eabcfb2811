package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"coinboard/internal/config"
	"coinboard/internal/dashboard"
	"coinboard/internal/httpx"
	"coinboard/internal/provider"
	"coinboard/internal/provider/coincap"
	"coinboard/internal/provider/ratelimit"
	"coinboard/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	var configPath string
	var logPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML or JSON config file (optional)")
	flag.StringVar(&logPath, "log", "", "write logs to this file (overrides ui.log_file)")
	flag.Parse()

	if err := run(configPath, logPath); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(configPath, logPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if logPath == "" {
		logPath = cfg.UI.LogFile
	}

	// anything written to the terminal while the table is up corrupts it
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "coinboard")
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newProvider(cfg)
	log.Printf("starting: provider=%s endpoint=%s poll=%s", p.Name(), cfg.Source.Endpoint, cfg.UI.PollInterval())

	state := dashboard.New(p)
	m := tui.New(state,
		tui.WithContext(ctx),
		tui.WithPollInterval(cfg.UI.PollInterval()),
		tui.WithFetchTimeout(cfg.UI.FetchTimeout()),
	)
	if err := tui.Run(ctx, m); err != nil {
		log.Printf("terminal loop: %v", err)
		return err
	}
	log.Println("bye")
	return nil
}

func newProvider(cfg config.Config) provider.Provider {
	httpClient := httpx.New(cfg.Source.RequestTimeout())
	cc := coincap.New(
		coincap.WithHTTPClient(httpClient),
		coincap.WithBaseURL(cfg.Source.Endpoint),
	)
	return ratelimit.Wrap(cc, cfg.Source.MaxRequestsPerMinute, cfg.Source.Burst, cfg.Source.MinRequestInterval())
}
