package providers

import "fmt"

const (
	ErrCodeNetworkError      = "NETWORK_ERROR"
	ErrCodeInvalidDataFormat = "INVALID_DATA_FORMAT"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeRejected          = "REJECTED"
	ErrCodeNotConfigured     = "NOT_CONFIGURED"
)

// ProviderError describes a failed call to an outside service.
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
