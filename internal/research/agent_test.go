package research

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techleadershub/gita-counsellor/internal/config"
	"github.com/techleadershub/gita-counsellor/internal/llm"
	"github.com/techleadershub/gita-counsellor/internal/vectorstore"
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

type fakeLLM struct {
	invoke func(req llm.Request) (*llm.Response, error)
}

func (f *fakeLLM) InvokeModel(_ context.Context, req llm.Request) (*llm.Response, error) {
	return f.invoke(req)
}

func (f *fakeLLM) InvokeModelWithRetry(_ context.Context, req llm.Request) (*llm.Response, error) {
	return f.invoke(req)
}

// scriptedLLM answers the analysis, questions and synthesis prompts in the
// shapes the pipeline expects.
func scriptedLLM(questions []string) *fakeLLM {
	return &fakeLLM{invoke: func(req llm.Request) (*llm.Response, error) {
		switch {
		case strings.Contains(req.Prompt, "research questions"):
			return &llm.Response{Content: strings.Join(questions, "\n")}, nil
		case strings.Contains(req.Prompt, "structured analysis"):
			return &llm.Response{Content: "CORE_ISSUE: attachment to outcomes"}, nil
		default:
			return &llm.Response{Content: "## A. ANALYSIS\n\nRoot cause.\n\n## B. PRACTICAL GUIDANCE\n\nAct without attachment.\n\n## C. SPIRITUAL EXERCISES\n\n1. Reflect daily."}, nil
		}
	}}
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbeddings(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// fakeIndex hands out one scripted search result per call, in order.
type fakeIndex struct {
	mu      sync.Mutex
	results [][]vectorstore.Match
	errs    []error
	calls   int
}

func (f *fakeIndex) EnsureReady(context.Context, int) error { return nil }

func (f *fakeIndex) Upsert(context.Context, []vectorstore.Point) error { return nil }

func (f *fakeIndex) Count(context.Context) (int, error) { return 0, nil }

func (f *fakeIndex) Search(_ context.Context, _ []float32, _ int) ([]vectorstore.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return nil, nil
}

type fakeStore struct {
	verses   map[string]verses.Verse
	purports []verses.PurportMatch
	purpErr  error
}

func (f *fakeStore) GetByID(_ context.Context, verseID string) (verses.Verse, error) {
	v, ok := f.verses[verseID]
	if !ok {
		return verses.Verse{}, verses.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) SearchPurports(_ context.Context, _ string, _ int) ([]verses.PurportMatch, error) {
	return f.purports, f.purpErr
}

func testVerse(id string, chapter, number int) verses.Verse {
	return verses.Verse{
		ID:          id,
		Chapter:     chapter,
		VerseNumber: number,
		Translation: "Translation of " + id,
		Purport:     "Purport of " + id,
	}
}

func collectEvents(t *testing.T, ch <-chan ProgressEvent) []ProgressEvent {
	t.Helper()
	var events []ProgressEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func steps(events []ProgressEvent) []Step {
	out := make([]Step, len(events))
	for i, ev := range events {
		out[i] = ev.Step
	}
	return out
}

func testAgent(client llm.Client, index vectorstore.Index, store VerseStore) *Agent {
	cfg := config.DefaultResearchConfig()
	cfg.QuestionCount = 2
	return NewAgent(client, &fakeEmbedder{}, index, store, cfg, zerolog.Nop())
}

func TestAgentResearchHappyPath(t *testing.T) {
	store := &fakeStore{verses: map[string]verses.Verse{
		"2.47": testVerse("2.47", 2, 47),
		"2.48": testVerse("2.48", 2, 48),
		"3.30": testVerse("3.30", 3, 30),
	}}
	index := &fakeIndex{results: [][]vectorstore.Match{
		{{VerseID: "2.47", Score: 0.91}, {VerseID: "2.48", Score: 0.85}},
		{{VerseID: "3.30", Score: 0.78}},
	}}
	agent := testAgent(scriptedLLM([]string{"What is karma yoga?", "How to act without attachment?"}), index, store)

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "I fear failing at work"}))

	assert.Equal(t, []Step{
		StepAnalyzing,
		StepQuestionsGenerated,
		StepSearchingVerse,
		StepSearchingVerse,
		StepVersesFound,
		StepSynthesizing,
		StepFinalizing,
		StepCompleted,
	}, steps(events))

	final := events[len(events)-1]
	result, ok := final.Details.(Result)
	require.True(t, ok)
	assert.Len(t, result.Verses, 3)
	assert.Equal(t, "2.47", result.Verses[0].ID)
	assert.Contains(t, result.Answer, "Key Verses Referenced")
	assert.Contains(t, result.Answer, "Act without attachment.")
	assert.Equal(t, "I fear failing at work", result.Query)
}

func TestAgentResearchDedupKeepsHighestScore(t *testing.T) {
	store := &fakeStore{verses: map[string]verses.Verse{
		"2.47": testVerse("2.47", 2, 47),
		"2.48": testVerse("2.48", 2, 48),
		"3.30": testVerse("3.30", 3, 30),
	}}
	index := &fakeIndex{results: [][]vectorstore.Match{
		{{VerseID: "2.47", Score: 0.60}, {VerseID: "2.48", Score: 0.88}, {VerseID: "3.30", Score: 0.70}},
		{{VerseID: "2.47", Score: 0.95}},
	}}
	agent := testAgent(scriptedLLM([]string{"q1", "q2"}), index, store)

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "duty"}))

	final := events[len(events)-1]
	require.Equal(t, StepCompleted, final.Step)
	result := final.Details.(Result)
	require.Len(t, result.Verses, 3)
	assert.Equal(t, "2.47", result.Verses[0].ID)
	assert.Equal(t, 0.95, result.Verses[0].Score)
}

func TestAgentResearchToleratesPartialSearchFailure(t *testing.T) {
	store := &fakeStore{verses: map[string]verses.Verse{
		"2.47": testVerse("2.47", 2, 47),
		"2.48": testVerse("2.48", 2, 48),
		"3.30": testVerse("3.30", 3, 30),
	}}
	index := &fakeIndex{
		results: [][]vectorstore.Match{{{VerseID: "2.47", Score: 0.9}, {VerseID: "2.48", Score: 0.8}, {VerseID: "3.30", Score: 0.7}}},
		errs:    []error{nil, errors.New("connection refused")},
	}
	agent := testAgent(scriptedLLM([]string{"q1", "q2"}), index, store)

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "duty"}))

	final := events[len(events)-1]
	require.Equal(t, StepCompleted, final.Step)
	assert.Len(t, final.Details.(Result).Verses, 3)
}

func TestAgentResearchFailsWhenAllSearchesFail(t *testing.T) {
	index := &fakeIndex{errs: []error{errors.New("down"), errors.New("down")}}
	agent := testAgent(scriptedLLM([]string{"q1", "q2"}), index, &fakeStore{})

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "duty"}))

	final := events[len(events)-1]
	assert.Equal(t, StepError, final.Step)
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Step.Terminal())
	}
}

func TestAgentResearchFailsOnAnalysisError(t *testing.T) {
	client := &fakeLLM{invoke: func(llm.Request) (*llm.Response, error) {
		return nil, errors.New("throttled")
	}}
	agent := testAgent(client, &fakeIndex{}, &fakeStore{})

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "duty"}))

	require.NotEmpty(t, events)
	assert.Equal(t, StepError, events[len(events)-1].Step)
	for _, ev := range events {
		assert.NotEqual(t, StepCompleted, ev.Step)
	}
}

func TestAgentResearchRejectsEmptyQuery(t *testing.T) {
	agent := testAgent(scriptedLLM(nil), &fakeIndex{}, &fakeStore{})

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "   "}))

	require.Len(t, events, 1)
	assert.Equal(t, StepError, events[0].Step)
}

func TestAgentResearchPurportFallback(t *testing.T) {
	store := &fakeStore{
		verses: map[string]verses.Verse{"2.47": testVerse("2.47", 2, 47)},
		purports: []verses.PurportMatch{
			{Verse: testVerse("18.66", 18, 66), Rank: -4.2},
			{Verse: testVerse("2.47", 2, 47), Rank: -3.1},
		},
	}
	index := &fakeIndex{results: [][]vectorstore.Match{{{VerseID: "2.47", Score: 0.9}}}}
	agent := testAgent(scriptedLLM([]string{"q1", "q2"}), index, store)

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "surrender"}))

	assert.Equal(t, []Step{
		StepAnalyzing,
		StepQuestionsGenerated,
		StepSearchingVerse,
		StepSearchingVerse,
		StepVersesFound,
		StepSearchingPurports,
		StepPurportsFound,
		StepSynthesizing,
		StepFinalizing,
		StepCompleted,
	}, steps(events))

	var purports ProgressEvent
	for _, ev := range events {
		if ev.Step == StepPurportsFound {
			purports = ev
		}
	}
	details := purports.Details.(PurportsFoundDetails)
	assert.Equal(t, 1, details.Added)
	assert.Equal(t, 2, details.Total)

	result := events[len(events)-1].Details.(Result)
	require.Len(t, result.Verses, 2)
	assert.Equal(t, "2.47", result.Verses[0].ID)
	assert.Equal(t, 0.9, result.Verses[0].Score)
}

func TestAgentResearchCompletesWithNoVerses(t *testing.T) {
	agent := testAgent(scriptedLLM([]string{"q1", "q2"}), &fakeIndex{}, &fakeStore{})

	events := collectEvents(t, agent.Research(context.Background(), Request{Query: "meaning"}))

	final := events[len(events)-1]
	require.Equal(t, StepCompleted, final.Step)
	result := final.Details.(Result)
	assert.Empty(t, result.Verses)
	assert.NotContains(t, result.Answer, "Key Verses Referenced")
}

func TestAgentResearchStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blocked := make(chan struct{})
	client := &fakeLLM{invoke: func(llm.Request) (*llm.Response, error) {
		close(blocked)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	agent := testAgent(client, &fakeIndex{}, &fakeStore{})

	ch := agent.Research(ctx, Request{Query: "duty"})
	<-blocked
	cancel()

	events := collectEvents(t, ch)
	for _, ev := range events {
		assert.NotEqual(t, StepCompleted, ev.Step)
	}
}

func TestPurportScore(t *testing.T) {
	assert.Equal(t, 0.0, purportScore(2.5))
	assert.InDelta(t, 0.5, purportScore(-1), 1e-9)
	assert.Greater(t, purportScore(-9), purportScore(-1))
	assert.Less(t, purportScore(-9), 1.0)
}
