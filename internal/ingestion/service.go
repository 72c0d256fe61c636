package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/techleadershub/gita-counsellor/internal/embedding"
	"github.com/techleadershub/gita-counsellor/internal/vectorstore"
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

// ErrAlreadyRunning rejects a new ingestion while one is in flight.
var ErrAlreadyRunning = errors.New("ingestion already running")

const batchSize = 50

// Status is the externally visible ingestion state.
type Status struct {
	Status   string `json:"status"` // idle, processing, completed, error
	Message  string `json:"message"`
	Progress int    `json:"progress"` // 0-100
}

// VerseWriter is the slice of the verse store ingestion needs.
type VerseWriter interface {
	Upsert(ctx context.Context, verse verses.Verse) error
	All(ctx context.Context) ([]verses.Verse, error)
}

// Service loads verses from a JSON export into the verse store and indexes
// them in the vector store. One ingestion runs at a time.
type Service struct {
	store    VerseWriter
	embedder embedding.Embedder
	index    vectorstore.Index
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	status  Status
}

func NewService(store VerseWriter, embedder embedding.Embedder, index vectorstore.Index, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		index:    index,
		logger:   logger,
		status:   Status{Status: "idle"},
	}
}

// Status returns the current ingestion state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start kicks off ingestion of the verses JSON file at path in the
// background. Returns ErrAlreadyRunning if an ingestion is in flight.
func (s *Service) Start(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.status = Status{Status: "processing", Message: "Starting ingestion...", Progress: 5}
	s.mu.Unlock()

	go func() {
		if err := s.run(ctx, path); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Ingestion failed")
			s.setStatus(Status{Status: "error", Message: err.Error(), Progress: 0})
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	return nil
}

func (s *Service) run(ctx context.Context, path string) error {
	loaded, err := s.loadVerses(ctx, path)
	if err != nil {
		return err
	}
	s.setStatus(Status{Status: "processing", Message: fmt.Sprintf("Loaded %d verses", loaded), Progress: 30})

	indexed, err := s.Reindex(ctx, func(done, total int) {
		// Indexing covers the 30-95 band of the progress bar.
		progress := 30 + int(float64(done)/float64(total)*65)
		s.setStatus(Status{
			Status:   "processing",
			Message:  fmt.Sprintf("Indexed %d/%d verses", done, total),
			Progress: progress,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("loaded", loaded).Int("indexed", indexed).Msg("Ingestion complete")
	s.setStatus(Status{
		Status:   "completed",
		Message:  fmt.Sprintf("Ingested %d verses", indexed),
		Progress: 100,
	})
	return nil
}

// loadVerses reads the JSON verse export and upserts each verse.
func (s *Service) loadVerses(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read verses file: %w", err)
	}

	var all []verses.Verse
	if err := json.Unmarshal(data, &all); err != nil {
		return 0, fmt.Errorf("parse verses file: %w", err)
	}
	if len(all) == 0 {
		return 0, errors.New("verses file contains no verses")
	}

	for _, v := range all {
		if v.ID == "" || v.Translation == "" {
			continue
		}
		if err := s.store.Upsert(ctx, v); err != nil {
			return 0, fmt.Errorf("store verse %s: %w", v.ID, err)
		}
	}
	return len(all), nil
}

// Reindex embeds every stored verse and upserts the vectors in batches.
// The progress callback may be nil.
func (s *Service) Reindex(ctx context.Context, progress func(done, total int)) (int, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load verses: %w", err)
	}
	if len(all) == 0 {
		return 0, errors.New("verse store is empty")
	}

	if err := s.index.EnsureReady(ctx, embedding.Dimension); err != nil {
		return 0, fmt.Errorf("prepare vector index: %w", err)
	}

	indexed := 0
	for start := 0; start < len(all); start += batchSize {
		end := min(start+batchSize, len(all))
		batch := all[start:end]

		points := make([]vectorstore.Point, 0, len(batch))
		for _, v := range batch {
			vector, err := s.embedder.GenerateEmbeddings(ctx, v.EmbeddingText())
			if err != nil {
				return indexed, fmt.Errorf("embed verse %s: %w", v.ID, err)
			}
			points = append(points, vectorstore.Point{
				VerseID: v.ID,
				Vector:  vector,
				Payload: map[string]any{
					"verse_id":     v.ID,
					"chapter":      v.Chapter,
					"verse_number": v.VerseNumber,
				},
			})
		}

		if err := s.index.Upsert(ctx, points); err != nil {
			return indexed, fmt.Errorf("index batch at %d: %w", start, err)
		}
		indexed += len(batch)
		if progress != nil {
			progress(indexed, len(all))
		}
	}
	return indexed, nil
}

func (s *Service) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}
