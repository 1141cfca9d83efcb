package amqp

import (
	"time"

	"github.com/goccy/go-json"

	"irpfscan/internal/analysis"
)

// Request and result statuses carried on the result envelope.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalyzeRequest asks the worker to analyze one declaration file. The
// payload carries only the path; the worker reads and parses the file so
// large declarations never travel through the broker.
type AnalyzeRequest struct {
	RequestID string    `json:"request_id"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAnalyzeRequest builds a request for one file.
func NewAnalyzeRequest(requestID, path string) *AnalyzeRequest {
	return &AnalyzeRequest{
		RequestID: requestID,
		Path:      path,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the request to JSON bytes.
func (m *AnalyzeRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnalyzeRequestFromJSON decodes a request from JSON bytes.
func AnalyzeRequestFromJSON(data []byte) (*AnalyzeRequest, error) {
	var msg AnalyzeRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnalyzeResult is the worker's reply. On failure Result is nil and
// Error carries the reason.
type AnalyzeResult struct {
	RequestID string           `json:"request_id"`
	Path      string           `json:"path"`
	Status    string           `json:"status"`
	Error     string           `json:"error,omitempty"`
	Result    *analysis.Result `json:"result,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewAnalyzeResult wraps a completed analysis.
func NewAnalyzeResult(req *AnalyzeRequest, res *analysis.Result) *AnalyzeResult {
	return &AnalyzeResult{
		RequestID: req.RequestID,
		Path:      req.Path,
		Status:    StatusCompleted,
		Result:    res,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalyzeFailure wraps a failed analysis.
func NewAnalyzeFailure(req *AnalyzeRequest, err error) *AnalyzeResult {
	return &AnalyzeResult{
		RequestID: req.RequestID,
		Path:      req.Path,
		Status:    StatusFailed,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the result to JSON bytes.
func (m *AnalyzeResult) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnalyzeResultFromJSON decodes a result from JSON bytes.
func AnalyzeResultFromJSON(data []byte) (*AnalyzeResult, error) {
	var msg AnalyzeResult
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
