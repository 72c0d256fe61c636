package research

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/techleadershub/gita-counsellor/internal/config"
	"github.com/techleadershub/gita-counsellor/internal/embedding"
	"github.com/techleadershub/gita-counsellor/internal/llm"
	"github.com/techleadershub/gita-counsellor/internal/vectorstore"
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

// VerseStore is the slice of the verse database the agent needs: hydrating
// vector matches and full-text purport search.
type VerseStore interface {
	GetByID(ctx context.Context, verseID string) (verses.Verse, error)
	SearchPurports(ctx context.Context, query string, limit int) ([]verses.PurportMatch, error)
}

// Agent runs the multi-step research pipeline: it analyzes the user's
// situation, generates research questions, retrieves verses for each one,
// falls back to purport search when retrieval is thin, and synthesizes
// the final guidance.
type Agent struct {
	llm      llm.Client
	embedder embedding.Embedder
	index    vectorstore.Index
	store    VerseStore
	cfg      config.ResearchConfig
	logger   zerolog.Logger
}

func NewAgent(client llm.Client, embedder embedding.Embedder, index vectorstore.Index, store VerseStore, cfg config.ResearchConfig, logger zerolog.Logger) *Agent {
	return &Agent{
		llm:      client,
		embedder: embedder,
		index:    index,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Research runs the pipeline and streams progress events on the returned
// channel. The channel is closed after a terminal event (completed or
// error) is sent, or when ctx is cancelled.
func (a *Agent) Research(ctx context.Context, req Request) <-chan ProgressEvent {
	events := make(chan ProgressEvent, 8)
	go func() {
		defer close(events)
		a.run(ctx, req, events)
	}()
	return events
}

func (a *Agent) run(ctx context.Context, req Request, events chan<- ProgressEvent) {
	emit := func(ev ProgressEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(msg string, err error) {
		a.logger.Error().Err(err).Str("query", req.Query).Msg(msg)
		emit(ProgressEvent{Step: StepError, Message: msg, Details: EmptyDetails{}})
	}

	if err := req.Validate(); err != nil {
		fail("invalid request: "+err.Error(), err)
		return
	}

	// Stage 1: analyze the situation.
	if !emit(ProgressEvent{Step: StepAnalyzing, Message: "Analyzing your situation...", Details: EmptyDetails{}}) {
		return
	}
	analysisResp, err := a.llm.InvokeModelWithRetry(ctx, llm.Request{
		Prompt:      buildAnalysisPrompt(req.Query, req.Context),
		MaxTokens:   1000,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		fail("failed to analyze the situation", err)
		return
	}

	// Stage 2: generate research questions.
	questionsResp, err := a.llm.InvokeModelWithRetry(ctx, llm.Request{
		Prompt:      buildQuestionsPrompt(analysisResp.Content, a.cfg.QuestionCount),
		MaxTokens:   500,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		fail("failed to generate research questions", err)
		return
	}
	questions := parseQuestions(questionsResp.Content, a.cfg.QuestionCount)
	if len(questions) == 0 {
		fail("failed to generate research questions", errors.New("no questions parsed from model output"))
		return
	}
	if !emit(ProgressEvent{
		Step:    StepQuestionsGenerated,
		Message: fmt.Sprintf("Generated %d research questions", len(questions)),
		Details: QuestionsDetails{Count: len(questions), Questions: questions},
	}) {
		return
	}

	// Stage 3: retrieve verses for each question in parallel.
	acc := newAccumulator()
	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		hardErrs int
	)
	for i, q := range questions {
		if !emit(ProgressEvent{
			Step:    StepSearchingVerse,
			Message: fmt.Sprintf("Searching verses %d/%d", i+1, len(questions)),
			Details: SearchProgressDetails{Current: i + 1, Total: len(questions), Question: q},
		}) {
			return
		}
		wg.Add(1)
		go func(question string) {
			defer wg.Done()
			if err := a.searchQuestion(ctx, question, acc); err != nil {
				a.logger.Warn().Err(err).Str("question", question).Msg("verse search failed")
				errMu.Lock()
				hardErrs++
				errMu.Unlock()
			}
		}(q)
	}
	wg.Wait()
	if ctx.Err() != nil {
		return
	}
	if hardErrs == len(questions) {
		fail("verse search is unavailable", errors.New("all verse searches failed"))
		return
	}
	if !emit(ProgressEvent{
		Step:    StepVersesFound,
		Message: fmt.Sprintf("Found %d relevant verses", acc.Len()),
		Details: VersesFoundDetails{Count: acc.Len()},
	}) {
		return
	}

	// Stage 4: purport fallback when retrieval came up thin.
	if acc.Len() < a.cfg.MinVerses {
		if !emit(ProgressEvent{Step: StepSearchingPurports, Message: "Searching purports for deeper context...", Details: EmptyDetails{}}) {
			return
		}
		added := a.searchPurports(ctx, req.Query, acc)
		if ctx.Err() != nil {
			return
		}
		if !emit(ProgressEvent{
			Step:    StepPurportsFound,
			Message: fmt.Sprintf("Added %d verses from purport search", added),
			Details: PurportsFoundDetails{Added: added, Total: acc.Len()},
		}) {
			return
		}
	}
	matches := acc.Matches(a.cfg.MaxVerses)

	// Stage 5: synthesize the guidance.
	if !emit(ProgressEvent{Step: StepSynthesizing, Message: "Synthesizing guidance from scripture...", Details: EmptyDetails{}}) {
		return
	}
	synthesisResp, err := a.llm.InvokeModelWithRetry(ctx, llm.Request{
		Prompt:      buildSynthesisPrompt(req.Query, req.Context, analysisResp.Content, matches),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		fail("failed to synthesize guidance", err)
		return
	}
	parsed := parseSections(synthesisResp.Content)

	if !emit(ProgressEvent{Step: StepFinalizing, Message: "Preparing your guidance...", Details: EmptyDetails{}}) {
		return
	}
	result := Result{
		Answer:    assembleAnswer(req.Query, parsed, matches),
		Analysis:  parsed.Analysis,
		Guidance:  parsed.Guidance,
		Exercises: parsed.Exercises,
		Verses:    matches,
		Query:     req.Query,
	}
	emit(ProgressEvent{Step: StepCompleted, Message: "Guidance ready", Details: result})
}

// searchQuestion embeds one research question, queries the vector index and
// hydrates the matches from the verse store into the accumulator.
func (a *Agent) searchQuestion(ctx context.Context, question string, acc *accumulator) error {
	vector, err := a.embedder.GenerateEmbeddings(ctx, question)
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}
	found, err := a.index.Search(ctx, vector, a.cfg.TopK)
	if err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	for _, m := range found {
		verse, err := a.store.GetByID(ctx, m.VerseID)
		if err != nil {
			if errors.Is(err, verses.ErrNotFound) {
				a.logger.Warn().Str("verse_id", m.VerseID).Msg("indexed verse missing from store")
				continue
			}
			return fmt.Errorf("load verse %s: %w", m.VerseID, err)
		}
		acc.Add(VerseMatch{Verse: verse, Score: m.Score, Question: question})
	}
	return nil
}

// searchPurports runs the full-text fallback over purports. Failures here are
// logged and swallowed: the pipeline proceeds with whatever it has.
func (a *Agent) searchPurports(ctx context.Context, query string, acc *accumulator) int {
	found, err := a.store.SearchPurports(ctx, query, a.cfg.FallbackLimit)
	if err != nil {
		a.logger.Warn().Err(err).Msg("purport search failed")
		return 0
	}
	added := 0
	for _, m := range found {
		if acc.Add(VerseMatch{Verse: m.Verse, Score: purportScore(m.Rank), Question: query}) {
			added++
		}
	}
	return added
}

// purportScore maps a bm25 rank (lower is better, typically negative) onto
// (0, 1) so fallback matches sort alongside cosine similarities.
func purportScore(rank float64) float64 {
	r := -rank
	if r < 0 {
		r = 0
	}
	return r / (r + 1)
}
