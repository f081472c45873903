package omie

import "fmt"

// ErrorKind classifies Omie failures so callers need a single branch.
type ErrorKind string

const (
	// KindTransport covers network failures, timeouts and non-2xx
	// responses without a parseable body.
	KindTransport ErrorKind = "transport"
	// KindDomain covers valid envelopes whose codigo_status is not "0".
	KindDomain ErrorKind = "domain"
	// KindParse covers 2xx responses with a non-JSON body.
	KindParse ErrorKind = "parse"
)

// Error is the unified failure shape of the accounting client.
type Error struct {
	Kind       ErrorKind
	Call       string
	StatusCode string // Omie's codigo_status, only for domain errors
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != "" {
		return fmt.Sprintf("omie %s (%s): status %s: %s", e.Call, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("omie %s (%s): %s", e.Call, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retriable reports whether the dispatcher may retry: transport failures
// are transient, domain and parse failures are not.
func (e *Error) Retriable() bool { return e.Kind == KindTransport }

func transportError(call string, cause error) *Error {
	return &Error{Kind: KindTransport, Call: call, Message: cause.Error(), Cause: cause}
}

func domainError(call string, env statusEnvelope) *Error {
	return &Error{Kind: KindDomain, Call: call, StatusCode: env.CodigoStatus, Message: env.DescricaoStatus}
}

func parseError(call string, cause error) *Error {
	return &Error{Kind: KindParse, Call: call, Message: cause.Error(), Cause: cause}
}
