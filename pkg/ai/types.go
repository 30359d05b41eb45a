package ai

import "context"

// GradingInput contains everything the model needs to grade one student's
// combined submission text against the teacher's task description.
type GradingInput struct {
	TaskDescription string
	StudentText     string
	Severity        string
	Preferences     string
}

// GradingResult is the structured verdict parsed from the model response.
type GradingResult struct {
	Grade    float64 `json:"grade"`
	Feedback string  `json:"feedback"`
}

// Grader describes a language model capable of grading a submission.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingResult, error)
}

// DefaultSeverity is applied when the caller does not specify one.
const DefaultSeverity = "normal, not too severe, not too laid back"
