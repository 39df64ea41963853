package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/driftworks/crew/internal/agent"
	"github.com/driftworks/crew/internal/config"
	"github.com/driftworks/crew/internal/events"
	"github.com/driftworks/crew/internal/journal"
	"github.com/driftworks/crew/internal/manager"
	"github.com/driftworks/crew/internal/planner"
	"github.com/driftworks/crew/internal/scheduler"
	"github.com/driftworks/crew/internal/store"
	"github.com/driftworks/crew/internal/web"
)

// shutdownGrace bounds how long a stopping daemon waits for final
// saves and open connections.
const shutdownGrace = 10 * time.Second

// NewServeCmd creates the serve command: the daemon hosting the run
// manager and the HTTP API.
func NewServeCmd(app *App) *cobra.Command {
	var (
		listen  string
		logJSON bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the crew daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(wd)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return serve(cmd.Context(), cfg, logJSON)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Mirror events to stdout as NDJSON (automatic when piped)")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, logJSON bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	defer bus.Close()

	st, err := store.Open(cfg.RunsDir())
	if err != nil {
		return err
	}

	jnl, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer jnl.Close()

	plnr := planner.NewClaude(cfg.Planner.Command, cfg.Planner.Model)
	agents := agent.NewClaude(bus, cfg.Agent.Command, cfg.Agent.Model)
	sched := scheduler.New(plnr, agents, st, bus)

	mgr, err := manager.New(sched, agents, st, bus)
	if err != nil {
		return err
	}

	srv := web.New(cfg, mgr, bus, jnl)
	serveErrs, err := srv.Start()
	if err != nil {
		return err
	}
	log.Printf("INFO: listening on %s, data in %s", srv.Addr(), cfg.DataDir)
	for _, p := range cfg.Health() {
		if p.Available {
			log.Printf("INFO: provider %s ready (%s)", p.Name, p.Command)
		} else {
			log.Printf("WARN: provider %s command %q not found on PATH", p.Name, p.Command)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		st.AutoSave(gctx, mgr.Runs)
		return nil
	})

	g.Go(func() error {
		sub := bus.Subscribe()
		defer bus.Unsubscribe(sub)
		go func() {
			<-gctx.Done()
			bus.Unsubscribe(sub)
		}()
		jnl.Record(sub)
		return nil
	})

	if events.IsJSONMode(logJSON) {
		emitter := events.NewJSONEmitter(os.Stdout)
		g.Go(func() error {
			sub := bus.Subscribe()
			defer bus.Unsubscribe(sub)
			go func() {
				<-gctx.Done()
				bus.Unsubscribe(sub)
			}()
			emitter.Mirror(sub)
			return nil
		})
	}

	g.Go(func() error {
		select {
		case err := <-serveErrs:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	<-gctx.Done()
	log.Printf("INFO: shutting down")

	grace, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	mgr.Shutdown(grace)
	if err := srv.Stop(grace); err != nil {
		log.Printf("ERROR: stopping http server: %v", err)
	}

	return g.Wait()
}
