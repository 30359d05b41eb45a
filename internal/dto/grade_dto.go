package dto

// GradeRequest asks for one student's combined submission text to be graded
// against the teacher task for the homework. Preferences, when present, are
// mandatory grading rules the model must apply before correctness scoring.
type GradeRequest struct {
	Homework       string `json:"homework" validate:"required,min=1"`
	GradedUsername string `json:"graded_username" validate:"required,min=1"`
	Preferences    string `json:"preferences"`
	Severity       string `json:"severity"`
}

// GradeResponse carries the numeric grade and the model's feedback.
type GradeResponse struct {
	Grade    float64 `json:"grade"`
	Feedback string  `json:"feedback"`
}

// ExportRow is one line of the per-homework grade export.
type ExportRow struct {
	Username string  `json:"username"`
	Grade    float64 `json:"grade"`
}
