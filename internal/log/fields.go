package log

// Field names shared by every component.
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
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKey        = "key"
	FieldPartition  = "partition"
	FieldPosition   = "position"
	FieldSerial     = "serial"
	FieldCustomer   = "customer"
	FieldAmount     = "amount"
	FieldType       = "type"
	FieldItem       = "item"
	FieldEventKind  = "event_kind"
	FieldEventID    = "event_id"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentItems   = "items"
	ComponentService = "service"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

const (
	OpRecord   = "record"
	OpParse    = "parse"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpPublish  = "publish"
	OpPopulate = "populate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields collects structured attributes before handing them to slog.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithRequestID(requestID string) Fields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the addressing and money fields of a ledger row.
func (f Fields) WithTransaction(partition string, serial int, customer string, amount float64) Fields {
	f[FieldPartition] = partition
	f[FieldSerial] = serial
	f[FieldCustomer] = customer
	f[FieldAmount] = amount
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens f into slog's alternating key/value form.
func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
