package workflows

// Workflow stages reported in progress events
const (
	StageStarted        = "started"
	StageNews           = "news"
	StageFinancials     = "financials"
	StageAnalysis       = "analysis"
	StageRecommendation = "recommendation"
	StageModelSwitch    = "model_switch"
	StageCompleted      = "completed"
	StageFailed         = "failed"
)

// ProgressEvent is one status update of a running workflow
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// ProgressSink receives progress events. It may be called from several
// goroutines at once and must not block for long.
type ProgressSink func(ProgressEvent)

// Emit sends an event when the sink is set
func (s ProgressSink) Emit(stage, message, model string) {
	if s == nil {
		return
	}
	s(ProgressEvent{Stage: stage, Message: message, Model: model})
}
