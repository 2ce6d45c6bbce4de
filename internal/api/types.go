package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TaskOptions is the "options" part of a create request.
type TaskOptions struct {
	BusinessName string  `json:"business_name"`
	Description  string  `json:"description"`
	Mode         string  `json:"mode"`
	CutLengthSec float64 `json:"cut_length_sec"`
}

// TaskProgress summarizes how far a task has come through the pipeline.
type TaskProgress struct {
	Completed     int    `json:"completed"`
	Total         int    `json:"total"`
	LastCompleted string `json:"lastCompleted,omitempty"`
	LastAttempted string `json:"lastAttempted,omitempty"`
	NextStage     string `json:"nextStage,omitempty"`
}

// TaskSummary describes an index entry in a transport-friendly format.
type TaskSummary struct {
	ID           string       `json:"id"`
	BusinessName string       `json:"businessName"`
	Status       string       `json:"status"`
	AssetCount   int          `json:"assetCount"`
	Progress     TaskProgress `json:"progress"`
	ErrorKind    string       `json:"errorKind,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    string       `json:"createdAt,omitempty"`
	UpdatedAt    string       `json:"updatedAt,omitempty"`
}

// TaskDetail is the full persisted state of one task.
type TaskDetail struct {
	ID         string       `json:"id"`
	Options    TaskOptions  `json:"options"`
	Extensions []string     `json:"extensions"`
	Script     []string     `json:"script"`
	Completed  []string     `json:"completed"`
	Progress   TaskProgress `json:"progress"`
	Finished   bool         `json:"finished"`
}

// CreateTaskResponse is returned by POST /api/tasks.
type CreateTaskResponse struct {
	ID      string   `json:"id"`
	Assets  []string `json:"assets"`
	Started bool     `json:"started"`
}

// RunTaskResponse is returned by POST /api/tasks/{id}/run.
type RunTaskResponse struct {
	ID       string     `json:"id"`
	Started  bool       `json:"started"`
	Finished bool       `json:"finished"`
	Task     TaskDetail `json:"task"`
}

// TaskListResponse wraps a collection of task summaries.
type TaskListResponse struct {
	Tasks []TaskSummary `json:"tasks"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse is returned by GET /health. Status is "ok" when every stage
// and required dependency is ready, "degraded" otherwise.
type HealthResponse struct {
	Status       string             `json:"status"`
	Version      string             `json:"version"`
	UptimeS      int64              `json:"uptimeS"`
	Stages       []StageHealth      `json:"stages"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}
