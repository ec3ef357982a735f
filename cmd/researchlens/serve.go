package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/export"
	"github.com/TobiSchelling/researchlens/internal/fetch"
	"github.com/TobiSchelling/researchlens/internal/mcpserver"
	"github.com/TobiSchelling/researchlens/internal/research"
	"github.com/TobiSchelling/researchlens/internal/server"
)

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		opts := server.Options{
			CORSOrigins:   cfg.Server.CORSOrigins,
			StorageDriver: a.driver(),
			DefaultUserID: cfg.History.UserID,
			Metrics:       a.metrics,
		}
		if cfg.Server.Preview.Enabled {
			opts.Previewer = fetch.NewPreviewer(fetch.Options{
				Timeout:      cfg.Server.Preview.Timeout,
				MaxBytes:     cfg.Server.Preview.MaxBytes,
				AllowPrivate: cfg.Server.Preview.AllowPrivate,
			})
		}

		var store server.Store
		if a.db != nil {
			store = a.db
		}
		srv := server.New(a.agg, store, opts)

		fmt.Fprintf(os.Stderr, "Starting server at http://%s\n", cfg.Addr())
		fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop")
		return server.Serve(ctx, cfg.Addr(), srv.Handler(), cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- search command ---

var (
	searchMode string
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Run a single search and print the summary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.agg.Aggregate(ctx, research.SearchRequest{
			Query: strings.Join(args, " "),
			Mode:  research.Mode(searchMode),
		})
		if err != nil {
			return err
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		fmt.Print(export.MarkdownReport(&database.HistoryRecord{
			Query:      result.Query,
			SearchMode: string(result.Mode),
			Summary:    result.Summary,
			Sources:    result.Sources,
			Citations:  result.Citations,
			CreatedAt:  result.Timestamp,
		}))
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(research.ModeGeneral), "Search mode: general, research, news or tutorial")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the raw result as JSON")
}

// --- mcp command ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve research tools over the Model Context Protocol (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		var history mcpserver.HistoryLister
		if a.db != nil {
			history = a.db
		}
		tools := mcpserver.NewTools(a.agg, history, cfg.History.UserID, nil)
		return mcpserver.ServeStdio(mcpserver.New(tools, version))
	},
}
