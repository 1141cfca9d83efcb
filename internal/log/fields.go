package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldFile      = "file"
	FieldFiler     = "filer"
	FieldYear      = "year"
	FieldAnalyzer  = "analyzer"
	FieldFindings  = "findings"
	FieldScore     = "score"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentParser   = "parser"
	ComponentPipeline = "pipeline"
	ComponentHTTP     = "http"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
)
