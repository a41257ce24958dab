package logging

// Structured log field names.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "duration_ms"
	FieldClientIP  = "client_ip"
	FieldMessageID = "message_id"
)
