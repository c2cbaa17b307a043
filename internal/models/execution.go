package models

// ExecutionStage identifies which phase of the pipeline produced a result
type ExecutionStage string

const (
	StageLinting ExecutionStage = "linting"
	StageRuntime ExecutionStage = "runtime"
)

// ExecutionResult is the outcome of running one submission against its tests.
// Produced exactly once per submission; never mutated afterwards.
type ExecutionResult struct {
	Success bool           `json:"success"`
	Stage   ExecutionStage `json:"stage"`
	Output  string         `json:"output"`
	Error   string         `json:"error"`
}

// IsLintFailure returns true if the result is a static syntax-check rejection
func (r *ExecutionResult) IsLintFailure() bool {
	return !r.Success && r.Stage == StageLinting
}

// ExecuteRequest represents a direct code-execution request
type ExecuteRequest struct {
	Code     string `json:"code"`
	TestCode string `json:"test_code"`
}
