package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"nudge/internal/config"
	"nudge/internal/corpus"
	"nudge/internal/index"
	"nudge/internal/logger"
	"nudge/internal/metrics"
	"nudge/internal/server"
	"nudge/internal/store"
	"nudge/internal/suggest"
)

var serveAddr string

// serveCmd runs the TCP suggestion server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the suggestion server",
	Long: `Load the trained artifacts, build the in-memory command index, and
serve suggestion requests over TCP. When artifacts are missing or corrupt
the server still starts, answering from the seed command list alone.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.host/server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.With("serve")
	cfg := config.Get()

	// The index must be fully built before the listener starts accepting;
	// workers read it without locks.
	idx := buildIndex(log, cfg)
	engine := suggest.NewEngine(idx,
		suggest.WithTypoThreshold(cfg.Suggest.TypoThreshold),
		suggest.WithTemplateTopK(cfg.Suggest.TemplateTopK),
		suggest.WithMaxResults(cfg.Suggest.MaxResults),
	)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	srv, err := server.New(addr, engine,
		server.WithReadTimeout(time.Duration(cfg.Server.ReadTimeoutMS)*time.Millisecond),
		server.WithDefaultModel(cfg.Server.DefaultModel),
		server.WithMaxConns(cfg.Server.MaxConns),
	)
	if err != nil {
		return err
	}

	go func() {
		<-cmd.Context().Done()
		srv.Close()
	}()

	serveErr := srv.Serve()

	if snapshot, err := metrics.Get().JSON(); err == nil {
		log.Info("server stopped", "metrics", string(snapshot))
	}
	return serveErr
}

// buildIndex loads artifacts and merges the seed list. Load failures are
// logged and degrade to a seed-only (possibly empty) index.
func buildIndex(log *logger.Logger, cfg *config.Config) *index.Index {
	var seed []string
	if cfg.Suggest.SeedCommands {
		seed = corpus.SeedCommands
	}

	var st *store.Store
	if s, err := store.Open(cfg.Artifacts.Path); err != nil {
		log.Warn("failed to open artifact store", "path", cfg.Artifacts.Path, "error", err)
	} else {
		st = s
		defer st.Close()
	}

	idx, err := index.Load(st, seed)
	if err != nil {
		if errors.Is(err, index.ErrIndexUnavailable) {
			log.Warn("serving degraded", "error", err)
		} else {
			log.Error("unexpected index load failure", "error", err)
		}
	}

	log.Info("command index ready",
		"commands", len(idx.KnownCommands),
		"transition_keys", len(idx.Transitions),
		"corpus_docs", idx.Similarity.Len(),
	)
	return idx
}
