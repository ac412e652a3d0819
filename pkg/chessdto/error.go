package chessdto

// DomainError is an error reported by the Game Authority in its response body
// rather than by the transport.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "game authority error"
}
