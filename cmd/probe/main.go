package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/service/feed"
	xhttp "Omnitrade/pkg/http"
	applogger "Omnitrade/pkg/logger"
)

type options struct {
	addr    string
	botID   string
	frames  int
	timeout time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "http://localhost:8000", "server base URL")
	flag.StringVar(&opts.botID, "init", "", "bot id to initialize before streaming")
	flag.IntVar(&opts.frames, "frames", 3, "stream frames to verify")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	if err := run(ctx, opts, l); err != nil {
		l.Error("probe failed", applogger.Error(err))
		os.Exit(1)
	}
	l.Info("probe passed")
}

// run checks the root banner, optionally initializes a bot and verifies the
// shape of the first stream frames.
func run(ctx context.Context, opts options, l *applogger.Logger) error {
	client := xhttp.NewClient(xhttp.WithBaseURL(opts.addr), xhttp.WithTimeout(5*time.Second))

	var root struct {
		Status string `json:"status"`
		System string `json:"system"`
	}
	if err := client.GetJSON(ctx, "/", nil, &root); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if root.System != "Omnitrade OS" {
		return fmt.Errorf("root: unexpected system %q", root.System)
	}
	l.Info("root ok", applogger.String("status", root.Status))

	if opts.botID != "" {
		var res struct {
			Status string               `json:"status"`
			Bot    models.BotDefinition `json:"bot"`
		}
		req := &xhttp.RequestOptions{Method: xhttp.MethodPost, Path: "/api/bots/" + opts.botID + "/initialize"}
		if err := client.SendAndParse(ctx, req, &res); err != nil {
			return fmt.Errorf("initialize %s: %w", opts.botID, err)
		}
		if res.Status != "success" || !res.Bot.Active {
			return fmt.Errorf("initialize %s: status %q active=%t", opts.botID, res.Status, res.Bot.Active)
		}
		l.Info("bot initialized", applogger.String("bot", res.Bot.Name))
	}

	ws := feed.New(wsURL(opts.addr), 10*time.Second)
	if err := ws.Connect(ctx); err != nil {
		return err
	}
	defer ws.Close()

	frames, errs := ws.Read(ctx)
	for n := 1; n <= opts.frames; {
		select {
		case p, ok := <-frames:
			if !ok {
				return errors.New("stream closed early")
			}
			if err := checkPayload(p); err != nil {
				return fmt.Errorf("frame %d: %w", n, err)
			}
			l.Info("frame ok",
				applogger.Int("n", n),
				applogger.Int("health", p.Health),
				applogger.String("mode", string(p.Mode)))
			n++
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func wsURL(addr string) string {
	switch {
	case strings.HasPrefix(addr, "https://"):
		return "wss://" + strings.TrimPrefix(addr, "https://") + "/ws"
	case strings.HasPrefix(addr, "http://"):
		return "ws://" + strings.TrimPrefix(addr, "http://") + "/ws"
	default:
		return addr + "/ws"
	}
}

func checkPayload(p *models.Payload) error {
	s := p.Scanners
	if !s.Volatility.Valid() || !s.Trend.Valid() || !s.Phase.Valid() {
		return fmt.Errorf("market state %s/%s/%s", s.Volatility, s.Trend, s.Phase)
	}
	if !s.Clock.Valid() || !s.Cycle.Valid() || !s.Uncertainty.Valid() {
		return fmt.Errorf("clock %s/%s uncertainty %s", s.Clock, s.Cycle, s.Uncertainty)
	}
	if len(s.Rotation) == 0 {
		return errors.New("rotation missing")
	}
	if len(p.Bots) == 0 {
		return errors.New("bots missing")
	}
	if p.Health < 0 || p.Health > 100 {
		return fmt.Errorf("health %d", p.Health)
	}
	switch p.Mode {
	case models.ModeFull, models.ModeReduced, models.ModeDefensive, models.ModeStop:
	default:
		return fmt.Errorf("mode %q", p.Mode)
	}
	return nil
}
