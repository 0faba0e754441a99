package main

import (
	"context"
	"fmt"
	"io"

	"github.com/NordCoder/ordotrack/internal/alert"
	"github.com/NordCoder/ordotrack/internal/bootstrap"
	config "github.com/NordCoder/ordotrack/internal/config/tracker"
	"github.com/NordCoder/ordotrack/internal/obs"
	"github.com/NordCoder/ordotrack/internal/services/notifier"
	"github.com/NordCoder/ordotrack/internal/services/tracker"
	"go.uber.org/zap"
)

type cli struct {
	in          io.Reader
	out, errOut io.Writer

	configPath string
	verbose    bool

	name, label, days string
	yes               bool
	outPath           string
	grant, deny       bool
	recordID          string
	limit             int
	fromStart         bool

	cfg     *config.Config
	log     *zap.Logger
	backend *bootstrap.Backend
	gate    *alert.Gate
	tr      *tracker.Tracker
	closers []func()
}

func (c *cli) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *cli) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lc := cfg.LoggerConfig(true)
	if c.verbose {
		lc.Level = "debug"
	} else if lc.Level == "info" {
		lc.Level = "warn"
	}
	log, err := obs.NewLogger(lc)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.cfg, c.log = cfg, log
	c.closers = append(c.closers, func() { _ = log.Sync() })
	return nil
}

func (c *cli) openBackend(ctx context.Context) error {
	if c.backend != nil {
		return nil
	}
	if err := c.loadConfig(); err != nil {
		return err
	}
	b, err := bootstrap.OpenBackend(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.backend = b
	c.closers = append(c.closers, b.Close)
	return nil
}

// open builds the tracker with alert delivery. ask answers an undecided permission.
func (c *cli) open(ctx context.Context, ask alert.Prompter) error {
	if c.tr != nil {
		return nil
	}
	if err := c.openBackend(ctx); err != nil {
		return err
	}
	sink, closeSink, err := bootstrap.Sink(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, closeSink)

	clock := bootstrap.SystemClock{}
	c.gate = alert.NewGate(ctx, sink, bootstrap.Prompter(c.cfg, ask), c.backend.Store, c.log)
	uc := notifier.NewUC(c.gate, clock, c.backend.JournalOrNil(), c.log)
	c.tr = tracker.New(ctx, c.backend.Store, clock, uc, c.log)
	return nil
}

func (c *cli) terminal(question string) alert.TerminalPrompter {
	return alert.TerminalPrompter{In: c.in, Out: c.errOut, Question: question}
}
