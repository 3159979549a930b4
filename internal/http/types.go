package http

// ScanRequest is the request body for POST /api/v1/scan.
type ScanRequest struct {
	// Path is the file to scan, on the server's file system.
	Path string `json:"path"`
}

// ScanResponse is the response body for POST /api/v1/scan.
type ScanResponse struct {
	ScanID  string `json:"scan_id"`
	Found   bool   `json:"found"`
	Outcome string `json:"outcome"`

	// PIN is only populated when the server runs with reveal enabled.
	PIN       string `json:"pin,omitempty"`
	PINLength int    `json:"pin_length,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Offset    int64  `json:"offset,omitempty"`

	BytesRead  int64   `json:"bytes_read"`
	Windows    int     `json:"windows"`
	DurationMS float64 `json:"duration_ms"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Telemetry string `json:"telemetry,omitempty"`
}
