package domain

// Challenge is a problem instance fetched from the challenge service.
// Expression and Solution are only populated by the test endpoint.
type Challenge struct {
	ID         string   `json:"id"`
	Problem    string   `json:"problem"`
	Expression string   `json:"expression,omitempty"`
	Solution   *float64 `json:"solution,omitempty"`
}

// SubmissionResult is the challenge service's verdict on a submitted answer.
type SubmissionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Answer is the interpreted solution to a Challenge. Solution is nil when
// the model declared the reference data insufficient.
type Answer struct {
	ProblemID string   `json:"problem_id"`
	Solution  *float64 `json:"answer"`
	Reasoning string   `json:"reasoning,omitempty"`
}
