// ABOUTME: Builds the search pipeline and its storage handles from configuration
// ABOUTME: Shared by the CLI, the standalone MCP server and the benchmark runner
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/harper/partfinder/internal/charm"
	"github.com/harper/partfinder/internal/config"
	"github.com/harper/partfinder/internal/core"
	"github.com/harper/partfinder/internal/llm"
	"github.com/harper/partfinder/internal/storage/sqlite"
)

// Backend is what the pipeline reads products from
type Backend interface {
	core.RowSource
	core.Catalog
}

// Service holds the long-lived handles of one process
type Service struct {
	Config *config.Config
	Search *core.SearchContext

	store *sqlite.Storage
	charm *charm.Client
}

// New creates a service without building the pipeline; storage opens lazily
func New(cfg *config.Config) *Service {
	return &Service{Config: cfg}
}

// Open wires storage and model clients into a SearchContext.
// An empty catalog is not fatal; searches report it until a reload succeeds.
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	s := New(cfg)
	if err := s.buildSearch(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) buildSearch(ctx context.Context) error {
	cfg := s.Config

	lexicon := core.DefaultLexicon()
	if cfg.LexiconPath != "" {
		loaded, err := core.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return err
		}
		lexicon = loaded
		log.Printf("[Bootstrap] Loaded lexicon from %s (%d brands, %d categories)", cfg.LexiconPath, len(lexicon.Brands), len(lexicon.Categories))
	}

	backend, err := s.Backend()
	if err != nil {
		return err
	}

	searchCfg := core.SearchContextConfig{
		Catalog:        backend,
		Lexicon:        lexicon,
		UpsellCount:    cfg.UpsellCount,
		UpsellMinRatio: cfg.UpsellMinRatio,
		UpsellMaxRatio: cfg.UpsellMaxRatio,
	}

	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - searches will fail and replies will use templates")
	} else {
		client, err := llm.NewOpenAIClientWithConfig(cfg.OpenAIClientConfig())
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		} else {
			searchCfg.Embedder = client
			searchCfg.Chat = client
		}
	}

	holder := core.NewSnapshotHolder(backend, core.SnapshotOptions{Dimension: cfg.VectorDimension})
	if _, err := holder.Reload(ctx); err != nil {
		if !errors.Is(err, core.ErrStoreEmpty) {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		log.Println("Warning: catalog has no products with embeddings yet")
	}
	searchCfg.Holder = holder

	s.Search, err = core.NewSearchContext(searchCfg)
	return err
}

// Backend returns the catalog selected by PARTFINDER_CATALOG_SOURCE
func (s *Service) Backend() (Backend, error) {
	switch s.Config.CatalogSource {
	case config.SourceCharm:
		client, err := s.Charm()
		if err != nil {
			return nil, err
		}
		return charm.NewCatalogMirror(client), nil
	default:
		store, err := s.Store()
		if err != nil {
			return nil, err
		}
		return store.ProductStore, nil
	}
}

// Store opens the SQLite catalog on first use
func (s *Service) Store() (*sqlite.Storage, error) {
	if s.store != nil {
		return s.store, nil
	}
	store, err := sqlite.NewStorageWithPath(s.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.store = store
	return store, nil
}

// Charm connects to Charm KV on first use
func (s *Service) Charm() (*charm.Client, error) {
	if s.charm != nil {
		return s.charm, nil
	}
	client, err := charm.NewClient(&charm.Config{
		Host:     s.Config.CharmHost,
		DBName:   s.Config.CharmDBName,
		AutoSync: s.Config.AutoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	s.charm = client
	return client, nil
}

// Watch reloads the snapshot when the SQLite catalog file changes, until ctx ends
func (s *Service) Watch(ctx context.Context) {
	if s.Config.CatalogSource != config.SourceSQLite {
		log.Println("Warning: watching only applies to the sqlite catalog source, ignoring")
		return
	}

	watcher := core.NewSnapshotWatcher(s.Config.DBPath, core.DefaultWatchDebounce, func(ctx context.Context) error {
		_, err := s.Search.Reload(ctx)
		return err
	})
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Printf("Warning: catalog watcher stopped: %v", err)
		}
	}()
}

// Close releases storage handles
func (s *Service) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("Warning: Error closing storage: %v", err)
		}
		s.store = nil
	}
	if s.charm != nil {
		if err := s.charm.Close(); err != nil {
			log.Printf("Warning: Error closing Charm client: %v", err)
		}
		s.charm = nil
	}
}
