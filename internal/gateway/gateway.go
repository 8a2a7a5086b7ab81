// Package gateway wires the bot together: webhook server, event bus,
// program config loader, task service client, delivery ledger, notifier and
// the scheduled maintenance jobs.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/stellarlinkco/mentorbot/internal/bus"
	"github.com/stellarlinkco/mentorbot/internal/config"
	"github.com/stellarlinkco/mentorbot/internal/dedup"
	"github.com/stellarlinkco/mentorbot/internal/forge"
	"github.com/stellarlinkco/mentorbot/internal/notify"
	"github.com/stellarlinkco/mentorbot/internal/program"
	"github.com/stellarlinkco/mentorbot/internal/rules"
	"github.com/stellarlinkco/mentorbot/internal/task"
)

// Options allow injecting collaborators for testing.
type Options struct {
	Store      task.Store
	Commenter  forge.Commenter
	Fetcher    program.ContentsFetcher
	Notifier   Notifier
	SignalChan chan os.Signal
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	loader     *program.Loader
	processor  *Processor
	ledger     *dedup.Store
	server     *http.Server
	cron       *rcron.Cron
	signalChan chan os.Signal
}

func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	forgeClient := forge.NewClient(cfg.Forge.BaseURL, cfg.Forge.Token)

	var fetcher program.ContentsFetcher = forgeClient
	if opts.Fetcher != nil {
		fetcher = opts.Fetcher
	}
	g.loader = program.NewLoader(fetcher, program.Source{
		Owner:        cfg.Program.ConfigOwner,
		Repo:         cfg.Program.ConfigRepo,
		RegistryPath: cfg.Program.RegistryPath,
		CatalogPath:  cfg.Program.CatalogPath,
	})

	var store task.Store = task.NewClient(cfg.TaskService.BaseURL, cfg.TaskService.Token)
	if opts.Store != nil {
		store = opts.Store
	}

	ledger, err := dedup.Open(cfg.Dedup.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open delivery ledger: %w", err)
	}
	g.ledger = ledger

	var notifier Notifier
	if opts.Notifier != nil {
		notifier = opts.Notifier
	} else {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram)
		if err != nil {
			_ = ledger.Close()
			return nil, err
		}
		notifier = tg
	}

	labels := rules.Labels{
		Prefix:   cfg.Program.LabelPrefix,
		Complete: cfg.Program.CompleteLabel,
	}

	g.processor = NewProcessor(labels, g.loader, store, ledger, notifier, g.bus)

	var commenter forge.Commenter = forgeClient
	if opts.Commenter != nil {
		commenter = opts.Commenter
	}
	g.bus.SubscribeOutbound("forge", func(msg bus.OutboundComment) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := commenter.PostComment(ctx, msg.Owner, msg.Repo, msg.IssueNumber, msg.Body); err != nil {
			log.Printf("[gateway] post comment to %s/%s#%d failed: %v", msg.Owner, msg.Repo, msg.IssueNumber, err)
		}
	})

	webhook := NewWebhook(cfg.Gateway.WebhookSecret, cfg.Forge.BotLogin, labels, g.bus)
	mux := http.NewServeMux()
	mux.Handle(cfg.Gateway.WebhookPath, webhook)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	g.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		Handler: mux,
	}

	g.signalChan = opts.SignalChan

	return g, nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)
	go g.processor.Run(ctx)

	if err := g.loader.Refresh(ctx); err != nil {
		// Events fetch lazily on first use; startup continues.
		log.Printf("[gateway] initial config refresh warning: %v", err)
	}

	if err := g.startCron(ctx); err != nil {
		return err
	}

	go func() {
		log.Printf("[gateway] listening on %s (webhook %s)", g.server.Addr, g.cfg.Gateway.WebhookPath)
		if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[gateway] server error: %v", err)
		}
	}()

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	select {
	case <-sigCh:
		log.Printf("[gateway] signal received, shutting down...")
	case <-ctx.Done():
		log.Printf("[gateway] context cancelled, shutting down...")
	}
	return g.Shutdown()
}

func (g *Gateway) startCron(ctx context.Context) error {
	g.cron = rcron.New(rcron.WithSeconds())

	if _, err := g.cron.AddFunc(g.cfg.Program.RefreshSpec, func() {
		refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := g.loader.Refresh(refreshCtx); err != nil {
			log.Printf("[cron] config refresh failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule config refresh: %w", err)
	}

	retention := time.Duration(g.cfg.Dedup.RetentionDays) * 24 * time.Hour
	if _, err := g.cron.AddFunc("0 0 4 * * *", func() {
		n, err := g.ledger.Prune(retention)
		if err != nil {
			log.Printf("[cron] ledger prune failed: %v", err)
			return
		}
		log.Printf("[cron] pruned %d delivery records", n)
	}); err != nil {
		return fmt.Errorf("schedule ledger prune: %w", err)
	}

	g.cron.Start()
	log.Printf("[cron] started")
	return nil
}

func (g *Gateway) Shutdown() error {
	if g.cron != nil {
		stopCtx := g.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			log.Printf("[cron] stop timeout waiting for running jobs")
		}
	}
	if g.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = g.server.Shutdown(shutdownCtx)
	}
	if g.ledger != nil {
		if err := g.ledger.Close(); err != nil {
			log.Printf("[gateway] close ledger warning: %v", err)
		}
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}
