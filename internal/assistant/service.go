// Package assistant is the entry point every caller uses: it processes
// uploaded documents into the vector index and answers questions against it
// or against a staged CSV file.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/docchat/internal/chunker"
	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/provider"
	"github.com/ziadkadry99/docchat/internal/qa"
	"github.com/ziadkadry99/docchat/internal/session"
	"github.com/ziadkadry99/docchat/internal/tabular"
	"github.com/ziadkadry99/docchat/internal/validate"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// ProcessResult summarises one processed upload.
type ProcessResult struct {
	Type       document.FileType
	Files      int
	Characters int
	Chunks     int
	// StagedPath is set for CSV uploads.
	StagedPath string
	Duration   time.Duration
}

// Service runs the process and ask call chains for one model binding.
type Service struct {
	binding    *provider.Binding
	extractor  *document.Extractor
	chunker    *chunker.Chunker
	index      *vectordb.Index
	composer   *qa.Composer
	agent      *tabular.Agent
	store      *session.Store
	stagingDir string
	topK       int
	indexOpts  []vectordb.Option
}

// Option customises a Service.
type Option func(*Service)

// WithStore persists turns and document records.
func WithStore(s *session.Store) Option {
	return func(svc *Service) { svc.store = s }
}

// WithIndexOptions passes options through to the vector index.
func WithIndexOptions(opts ...vectordb.Option) Option {
	return func(svc *Service) { svc.indexOpts = append(svc.indexOpts, opts...) }
}

// New wires a Service from configuration and a resolved binding.
func New(cfg *config.Config, binding *provider.Binding, opts ...Option) *Service {
	svc := &Service{
		binding:   binding,
		extractor: document.NewExtractor(""),
		chunker: chunker.New(
			chunker.WithChunkSize(cfg.Chunking.Size),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
		composer:   qa.NewComposer(binding.Provider, binding.Model),
		agent:      tabular.NewAgent(binding.Provider, binding.Model, cfg.Tabular.MaxRows),
		stagingDir: cfg.StagingPath(),
		topK:       cfg.Retrieval.TopK,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.index = vectordb.Open(cfg.IndexDir(), binding.Embedder, svc.indexOpts...)
	return svc
}

// Binding returns the model binding the service was built with.
func (s *Service) Binding() *provider.Binding { return s.binding }

// Index returns the vector index.
func (s *Service) Index() *vectordb.Index { return s.index }

// Store returns the session store, or nil.
func (s *Service) Store() *session.Store { return s.store }

// Process validates docs and makes them the session's question source.
// PDF and DOCX uploads rebuild the vector index from scratch; a CSV upload
// is staged and the session switches to the tabular path. sess may be nil
// when no session should be switched.
func (s *Service) Process(ctx context.Context, sess *session.Session, docs []document.Document) (*ProcessResult, error) {
	start := time.Now()

	kind, err := validate.Documents(docs)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Type = kind
	}

	res := &ProcessResult{Type: kind, Files: len(docs)}

	if kind == document.TypeCSV {
		path, err := document.StageCSV(s.stagingDir, docs[0])
		if err != nil {
			return nil, err
		}
		res.StagedPath = path
		if sess != nil {
			sess.UseTabular(path)
		}
	} else {
		text, err := s.extractor.Extract(ctx, docs)
		if err != nil {
			return nil, err
		}
		res.Characters = len([]rune(text))

		chunks := chunker.Texts(s.chunker.Split(text))
		n, err := s.index.Rebuild(ctx, chunks, sourceLabel(docs))
		if err != nil {
			return nil, fmt.Errorf("building vector index: %w", err)
		}
		res.Chunks = n
		if sess != nil {
			sess.UseDocuments()
		}
	}
	res.Duration = time.Since(start)

	if err := s.record(ctx, sess, docs, res); err != nil {
		return nil, err
	}

	log.Info().
		Str("type", string(kind)).
		Int("documents", res.Files).
		Int("chunks", res.Chunks).
		Dur("duration", res.Duration).
		Msg("documents processed")

	return res, nil
}

func (s *Service) record(ctx context.Context, sess *session.Session, docs []document.Document, res *ProcessResult) error {
	if s.store == nil {
		return nil
	}
	if sess != nil {
		if err := s.store.SaveMode(ctx, sess); err != nil {
			return err
		}
	}
	for _, d := range docs {
		rec := session.DocumentRecord{
			Name:        d.Name,
			Type:        string(d.Type),
			Size:        int64(len(d.Data)),
			ContentHash: document.HashBytes(d.Data),
			Chunks:      res.Chunks,
			StagedPath:  res.StagedPath,
		}
		if err := s.store.RecordDocument(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Ask answers question in the session's current mode and appends the turn.
func (s *Service) Ask(ctx context.Context, sess *session.Session, question string) (*qa.Answer, error) {
	q, err := validate.Question(question)
	if err != nil {
		return nil, err
	}

	var (
		ans    *qa.Answer
		source session.Source
	)
	if sess.Mode == session.SourceTabular && sess.TabularSource != "" {
		source = session.SourceTabular
		ans, err = s.agent.Ask(ctx, sess.TabularSource, q)
	} else {
		source = session.SourceDocuments
		ans, err = s.askDocuments(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	turn := sess.Append(q, ans.Text, source)
	if s.store != nil {
		if err := s.store.AppendTurn(ctx, sess.ID, turn); err != nil {
			return nil, err
		}
	}
	return ans, nil
}

func (s *Service) askDocuments(ctx context.Context, question string) (*qa.Answer, error) {
	results, err := s.index.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, err
	}
	return s.composer.Compose(ctx, question, vectordb.Contents(results))
}

// Search returns the k chunks most similar to query without generating an
// answer. k <= 0 uses the configured top-k.
func (s *Service) Search(ctx context.Context, query string, k int) ([]vectordb.SearchResult, error) {
	q, err := validate.Question(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = s.topK
	}
	return s.index.Retrieve(ctx, q, k)
}

// IsUserError reports whether err stems from the caller's input or state
// rather than a fault.
func IsUserError(err error) bool {
	return errors.Is(err, validate.ErrValidation) ||
		errors.Is(err, document.ErrExtraction) ||
		errors.Is(err, vectordb.ErrIndexNotFound)
}

func sourceLabel(docs []document.Document) string {
	if len(docs) == 1 {
		return docs[0].Name
	}
	return fmt.Sprintf("%s (+%d more)", docs[0].Name, len(docs)-1)
}
