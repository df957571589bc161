// Package response defines the JSON envelope returned by every handler.
package response

// Response is the standard API envelope.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// OK builds a success envelope.
func OK() Response {
	return Response{Status: statusOK}
}

// Error builds a failure envelope.
func Error(msg string) Response {
	return Response{Status: statusError, Error: msg}
}

// ErrorKind builds a failure envelope tagged with the taxonomy kind.
func ErrorKind(msg, kind string) Response {
	return Response{Status: statusError, Error: msg, Kind: kind}
}
