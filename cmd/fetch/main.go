package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"coinboard/internal/config"
	"coinboard/internal/dashboard"
	"coinboard/internal/httpx"
	"coinboard/internal/provider/coincap"
	"coinboard/internal/provider/ratelimit"
	"coinboard/internal/tui"
)

func main() {
	var configPath string
	var limit int
	var asTable bool
	var timeout int

	flag.StringVar(&configPath, "config", "", "path to a YAML or JSON config file (optional)")
	flag.IntVar(&limit, "limit", 10, "print at most this many rows (0 = all)")
	flag.BoolVar(&asTable, "table", false, "print the rendered table instead of JSON")
	flag.IntVar(&timeout, "timeout", 0, "request timeout seconds (overrides source.request_timeout_sec)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if timeout > 0 {
		cfg.Source.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(cfg.Source.RequestTimeout())
	cc := coincap.New(coincap.WithHTTPClient(httpClient), coincap.WithBaseURL(cfg.Source.Endpoint))
	state := dashboard.New(ratelimit.Wrap(cc, cfg.Source.MaxRequestsPerMinute, cfg.Source.Burst, cfg.Source.MinRequestInterval()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.UI.FetchTimeout())
	defer cancel()
	start := time.Now()
	if err := state.ForceRefresh(ctx, start); err != nil {
		log.Fatalf("%s fetch: %v", cc.Name(), err)
	}
	log.Printf("%s: %d assets in %s", cc.Name(), state.Len(), time.Since(start).Round(time.Millisecond))

	rows := state.Rows()
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	if asTable {
		fmt.Println(tui.RenderTable(rows))
		return
	}
	b, _ := json.MarshalIndent(rows, "", "  ")
	fmt.Println(string(b))
}
