package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/techleadershub/gita-counsellor/internal/api/middleware"
	"github.com/techleadershub/gita-counsellor/internal/cache"
	"github.com/techleadershub/gita-counsellor/internal/guardrails"
	"github.com/techleadershub/gita-counsellor/internal/ingestion"
	"github.com/techleadershub/gita-counsellor/internal/research"
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

const defaultHeartbeat = 15 * time.Second

// ResearchRunner runs the guidance pipeline and streams its progress.
type ResearchRunner interface {
	Research(ctx context.Context, req research.Request) <-chan research.ProgressEvent
}

// VerseReader is the read side of the verse store the API exposes.
type VerseReader interface {
	GetByID(ctx context.Context, verseID string) (verses.Verse, error)
	List(ctx context.Context, filter verses.Filter) ([]verses.Verse, error)
	Stats(ctx context.Context) (verses.Stats, error)
}

// Ingestor starts and reports on background verse ingestion.
type Ingestor interface {
	Start(ctx context.Context, path string) error
	Status() ingestion.Status
}

// PointCounter reports how many embeddings the vector index holds.
type PointCounter interface {
	Count(ctx context.Context) (int, error)
}

// InputValidator screens user input before it reaches the pipeline.
type InputValidator interface {
	ValidateInput(ctx context.Context, input string) guardrails.ValidationResult
}

type Handler struct {
	agent      ResearchRunner
	store      VerseReader
	index      PointCounter
	ingestor   Ingestor
	validator  InputValidator
	cache      *cache.ResultCache
	versesPath string
	heartbeat  time.Duration
	logger     zerolog.Logger
}

func NewHandler(
	agent ResearchRunner,
	store VerseReader,
	index PointCounter,
	ingestor Ingestor,
	validator InputValidator,
	resultCache *cache.ResultCache,
	versesPath string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		agent:      agent,
		store:      store,
		index:      index,
		ingestor:   ingestor,
		validator:  validator,
		cache:      resultCache,
		versesPath: versesPath,
		heartbeat:  defaultHeartbeat,
		logger:     logger,
	}
}

// Health handles GET /health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: "1.0.0",
	})
}

// Research handles POST /api/research
func (h *Handler) Research(req *restful.Request, resp *restful.Response) {
	researchReq, ok := h.readResearchRequest(req, resp)
	if !ok {
		return
	}

	ctx := req.Request.Context()

	if result, hit := h.cache.Get(ctx, researchReq.Query, researchReq.Context); hit {
		h.logger.Info().Str("query", researchReq.Query).Msg("Research served from cache")
		resp.WriteHeaderAndEntity(http.StatusOK, result)
		return
	}

	h.logger.Info().Str("query", researchReq.Query).Msg("Start research")

	final := h.drain(ctx, h.agent.Research(ctx, researchReq))
	if final == nil {
		middleware.HandleError(resp, ctx.Err(), http.StatusInternalServerError)
		return
	}
	if final.Step == research.StepError {
		middleware.HandleError(resp, errors.New(final.Message), http.StatusInternalServerError)
		return
	}

	result, ok := final.Details.(research.Result)
	if !ok {
		middleware.HandleError(resp, errors.New("malformed pipeline result"), http.StatusInternalServerError)
		return
	}

	h.cache.Set(ctx, researchReq.Query, researchReq.Context, result)
	h.logger.Info().
		Str("query", researchReq.Query).
		Int("verses", len(result.Verses)).
		Msg("Research complete")
	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// ResearchStream handles POST /api/research/stream
func (h *Handler) ResearchStream(req *restful.Request, resp *restful.Response) {
	researchReq, ok := h.readResearchRequest(req, resp)
	if !ok {
		return
	}

	resp.AddHeader("Content-Type", "text/event-stream")
	resp.AddHeader("Cache-Control", "no-cache")
	resp.AddHeader("Connection", "keep-alive")
	resp.AddHeader("X-Accel-Buffering", "no")

	writer := resp.ResponseWriter
	flusher, ok := writer.(http.Flusher)
	if !ok {
		middleware.HandleError(resp, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}
	resp.WriteHeader(http.StatusOK)

	// Cancelled when the client disconnects.
	ctx := req.Request.Context()

	h.logger.Info().Str("query", researchReq.Query).Msg("Start research stream")

	events := h.agent.Research(ctx, researchReq)
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error().Err(err).Str("step", string(ev.Step)).Msg("Failed to encode progress event")
				continue
			}
			fmt.Fprintf(writer, "data: %s\n\n", data)
			flusher.Flush()
			if ev.Step.Terminal() {
				return
			}
		case <-ticker.C:
			fmt.Fprint(writer, ": heartbeat\n\n")
			flusher.Flush()
		case <-ctx.Done():
			h.logger.Info().Str("query", researchReq.Query).Msg("Client disconnected, research cancelled")
			return
		}
	}
}

// ListVerses handles GET /api/verses
func (h *Handler) ListVerses(req *restful.Request, resp *restful.Response) {
	filter := verses.Filter{VerseID: req.QueryParameter("verse_id")}

	if raw := req.QueryParameter("chapter"); raw != "" {
		chapter, err := strconv.Atoi(raw)
		if err != nil {
			middleware.HandleError(resp, fmt.Errorf("invalid chapter %q", raw), http.StatusBadRequest)
			return
		}
		filter.Chapter = chapter
	}
	if raw := req.QueryParameter("verse_number"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil {
			middleware.HandleError(resp, fmt.Errorf("invalid verse_number %q", raw), http.StatusBadRequest)
			return
		}
		filter.VerseNumber = number
	}

	found, err := h.store.List(req.Request.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list verses")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}
	if found == nil {
		found = []verses.Verse{}
	}

	resp.WriteHeaderAndEntity(http.StatusOK, VersesResponse{Verses: found, Count: len(found)})
}

// GetVerse handles GET /api/verses/{verse_id}
func (h *Handler) GetVerse(req *restful.Request, resp *restful.Response) {
	verseID := req.PathParameter("verse_id")

	verse, err := h.store.GetByID(req.Request.Context(), verseID)
	if err != nil {
		if errors.Is(err, verses.ErrNotFound) {
			middleware.HandleError(resp, fmt.Errorf("verse %s not found", verseID), http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("verse_id", verseID).Msg("Failed to load verse")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, verse)
}

// Stats handles GET /api/stats
func (h *Handler) Stats(req *restful.Request, resp *restful.Response) {
	ctx := req.Request.Context()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load verse stats")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	points, err := h.index.Count(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Vector point count unavailable")
		points = 0
	}

	resp.WriteHeaderAndEntity(http.StatusOK, StatsResponse{
		TotalVerses:  stats.TotalVerses,
		Chapters:     stats.Chapters,
		VectorPoints: points,
	})
}

// Ingest handles POST /api/ingest
func (h *Handler) Ingest(req *restful.Request, resp *restful.Response) {
	var ingestReq IngestRequest
	if err := req.ReadEntity(&ingestReq); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	path := ingestReq.VersesPath
	if path == "" {
		path = h.versesPath
	}

	// Background ingestion outlives the request, so it gets its own context.
	if err := h.ingestor.Start(context.Background(), path); err != nil {
		if errors.Is(err, ingestion.ErrAlreadyRunning) {
			middleware.HandleError(resp, err, http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Str("path", path).Msg("Failed to start ingestion")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("path", path).Msg("Ingestion started")
	resp.WriteHeaderAndEntity(http.StatusAccepted, IngestResponse{Message: "Ingestion started"})
}

// IngestionStatus handles GET /api/ingestion/status
func (h *Handler) IngestionStatus(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, h.ingestor.Status())
}

// readResearchRequest parses, validates and screens a research request.
// On failure it writes the error response and returns ok=false.
func (h *Handler) readResearchRequest(req *restful.Request, resp *restful.Response) (research.Request, bool) {
	var researchReq research.Request
	if err := req.ReadEntity(&researchReq); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return research.Request{}, false
	}
	if err := researchReq.Validate(); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return research.Request{}, false
	}

	if h.validator != nil {
		if result := h.validator.ValidateInput(req.Request.Context(), researchReq.Query); !result.IsValid {
			h.logger.Warn().
				Str("category", result.Category).
				Str("reason", result.Reason).
				Msg("Query blocked by guardrails")
			resp.WriteHeaderAndEntity(http.StatusBadRequest, BlockedResponse{
				Error:    "query rejected",
				Category: result.Category,
				Reason:   result.Reason,
			})
			return research.Request{}, false
		}
	}
	return researchReq, true
}

// drain consumes the event stream and returns the terminal event, or nil when
// the stream closed without one.
func (h *Handler) drain(ctx context.Context, events <-chan research.ProgressEvent) *research.ProgressEvent {
	for {
		select {
		case ev, open := <-events:
			if !open {
				return nil
			}
			if ev.Step.Terminal() {
				return &ev
			}
		case <-ctx.Done():
			return nil
		}
	}
}
