package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/cpuguy83/calview/internal/calmath"
	"github.com/cpuguy83/calview/internal/config"
	"github.com/cpuguy83/calview/internal/server"
	"github.com/cpuguy83/calview/internal/sync"
	"github.com/cpuguy83/calview/internal/view"

	"github.com/spf13/cobra"
)

// App holds state shared by the subcommands.
type App struct {
	ConfigPath string
	Verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "calview",
		Short:        "Calendar view state engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "path to config file (default: ~/.config/calview/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newRenderCmd(app))
	cmd.AddCommand(newServeCmd(app))
	return cmd
}

func (a *App) init() error {
	level := slog.LevelInfo
	if a.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var err error
	if a.ConfigPath != "" {
		a.cfg, err = config.LoadFrom(a.ConfigPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// calendar builds the syncer and a calendar reading from it.
func (a *App) calendar() (*view.Calendar, *sync.Syncer, error) {
	syncer, err := sync.NewSyncer(a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create syncer: %w", err)
	}
	cal, err := buildCalendar(a.cfg, syncer)
	if err != nil {
		syncer.Close()
		return nil, nil, fmt.Errorf("configure view: %w", err)
	}
	return cal, syncer, nil
}

func newRenderCmd(app *App) *cobra.Command {
	var (
		start, end string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the view state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, syncer, err := app.calendar()
			if err != nil {
				return err
			}
			defer syncer.Close()

			if start != "" || end != "" {
				s, err := parseDay(start, cal.Location())
				if err != nil {
					return fmt.Errorf("parse --start: %w", err)
				}
				e, err := parseDay(end, cal.Location())
				if err != nil {
					return fmt.Errorf("parse --end: %w", err)
				}
				if !e.IsZero() {
					e = calmath.EndOfDay(e, cal.Location())
				}
				cal.SetRange(s, e)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := cal.Recompute(ctx); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(cal.State())
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day to show (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day to show (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the view state and accept client events over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.cfg.Server.Addr
			}

			cal, syncer, err := app.calendar()
			if err != nil {
				return err
			}
			defer syncer.Close()
			defer cal.Close()

			cleanup := addProviders(app.cfg, cal)
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := cal.Recompute(ctx); err != nil {
				slog.Warn("initial view failed", "error", err)
			}

			slog.Info("starting calview", "sources", syncer.SourceCount(), "addr", addr)

			var (
				wg      gosync.WaitGroup
				syncErr error
			)
			wg.Go(func() {
				syncErr = syncer.Run(ctx)
			})

			srvErr := server.New(cal).ListenAndServe(ctx, addr)
			stop()
			wg.Wait()

			if srvErr != nil {
				return srvErr
			}
			return syncErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
