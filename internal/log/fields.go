package log

// Field names shared by every log line of the application.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSessionID  = "session_id"
	FieldTableCount = "table_count"
	FieldRowCount   = "row_count"
	FieldViolations = "violations"
	FieldTables     = "tables"
)

// Components
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentGrid   = "grid"
	ComponentWorker = "worker"
)

// Operations
const (
	OpBuild    = "build"
	OpAddRow   = "add_row"
	OpAddTable = "add_table"
	OpSubmit   = "submit"
	OpReset    = "reset"
	OpExport   = "export"
	OpRead     = "read"
	OpValidate = "validate"
	OpRender   = "render"
)

// LogFields collects attributes for one log line.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSession adds the form session and its size.
func (f LogFields) WithSession(id string, tables, rows int) LogFields {
	f[FieldSessionID] = id
	f[FieldTableCount] = tables
	f[FieldRowCount] = rows
	return f
}

// WithRejection adds the number of violations and the tables that broke a rule.
func (f LogFields) WithRejection(violations int, tables []int) LogFields {
	f[FieldViolations] = violations
	if len(tables) > 0 {
		f[FieldTables] = tables
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
