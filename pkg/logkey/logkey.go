package logkey

// Shared slog attribute keys so log lines stay grep-able across packages.
const (
	TraceID = "trace_id"
	ERROR   = "error"
	UserID  = "user_id"
	OrderID = "order_id"
)
