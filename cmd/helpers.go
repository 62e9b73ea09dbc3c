package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/docchat/internal/assistant"
	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/db"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/progress"
	"github.com/ziadkadry99/docchat/internal/provider"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// app bundles what most commands need: config, the resolved model binding,
// the assistant service and the session store.
type app struct {
	cfg      *config.Config
	database *db.DB
	store    *session.Store
	svc      *assistant.Service
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openStore opens the session database without resolving models.
func openStore(cfg *config.Config) (*db.DB, *session.Store, error) {
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, session.NewStore(database), nil
}

// openApp resolves the model binding and wires the assistant service.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	database, store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	binding := provider.NewResolver(cfg).Resolve(ctx)
	svc := assistant.New(cfg, binding,
		assistant.WithStore(store),
		assistant.WithIndexOptions(vectordb.WithReporter(progress.NewReporter("Embedding chunks"))),
	)

	return &app{cfg: cfg, database: database, store: store, svc: svc}, nil
}

func (a *app) Close() error {
	return a.database.Close()
}

// session returns the session named by --session, or the most recent one.
func (a *app) session(ctx context.Context) (*session.Session, error) {
	return selectSession(ctx, a.store)
}

func selectSession(ctx context.Context, store *session.Store) (*session.Session, error) {
	if sessionID != "" {
		sess, err := store.Get(ctx, sessionID)
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w\nRun `docchat sessions` to list sessions", err)
		}
		return sess, err
	}
	return store.LatestOrCreate(ctx)
}

// bindingSummary describes the resolved models in one line.
func bindingSummary(b *provider.Binding) string {
	return fmt.Sprintf("%s backend: %s (%s), embeddings: %s", b.Backend, b.Model, b.Provider.Name(), b.Embedder.Name())
}

// expandInputs turns file, directory and glob arguments into documents.
// Directories are walked with the configured include patterns.
func expandInputs(cfg *config.Config, args []string) ([]document.Document, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[{") {
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			add(arg)
			continue
		}
		files, err := document.Collect(document.CollectConfig{RootDir: arg, Include: cfg.Include})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		for _, f := range files {
			add(f.Path)
		}
	}

	docs := make([]document.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := document.Load(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
