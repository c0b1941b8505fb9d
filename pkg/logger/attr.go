package logger

import "log/slog"

// Error records a single error under the key "error"; nil yields an empty
// attribute that slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under the key "tenant_id".
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// WorkspaceID records the Slack workspace identifier under the key
// "workspace_id".
func WorkspaceID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("workspace_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}
