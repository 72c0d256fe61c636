package research

// Step tags one stage of pipeline progress. Steps are emitted in a fixed
// logical order and end with exactly one terminal step, StepCompleted or
// StepError. No event follows a terminal event.
type Step string

const (
	StepAnalyzing          Step = "analyzing"
	StepQuestionsGenerated Step = "questions_generated"
	StepSearchingVerse     Step = "searching_verse"
	StepVersesFound        Step = "verses_found"
	StepSearchingPurports  Step = "searching_purports"
	StepPurportsFound      Step = "purports_found"
	StepSynthesizing       Step = "synthesizing"
	StepFinalizing         Step = "finalizing"
	StepCompleted          Step = "completed"
	StepError              Step = "error"
)

// Terminal reports whether the step ends the event stream.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepError
}

// ProgressEvent is one incremental status message from the pipeline.
// Details carries the step-specific payload listed below.
type ProgressEvent struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// EmptyDetails is the payload of steps that carry no extra data. It encodes
// as {} so every frame has the same shape.
type EmptyDetails struct{}

// QuestionsDetails accompanies StepQuestionsGenerated.
type QuestionsDetails struct {
	Count     int      `json:"count"`
	Questions []string `json:"questions"`
}

// SearchProgressDetails accompanies StepSearchingVerse. Current counts the
// sub-question retrievals started so far, not a strict serial position.
type SearchProgressDetails struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Question string `json:"question"`
}

// VersesFoundDetails accompanies StepVersesFound with the deduplicated count.
type VersesFoundDetails struct {
	Count int `json:"count"`
}

// PurportsFoundDetails accompanies StepPurportsFound. Added counts verses the
// fallback contributed that vector retrieval had not already found.
type PurportsFoundDetails struct {
	Added int `json:"added"`
	Total int `json:"total"`
}
