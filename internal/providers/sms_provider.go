package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSProvider posts messages to the SMS gateway as a url-encoded form.
type SMSProvider struct {
	Endpoint string
	Module   string
	Client   *http.Client
}

func NewSMSProvider(endpoint, module string) *SMSProvider {
	return &SMSProvider{
		Endpoint: endpoint,
		Module:   module,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *SMSProvider) GetProviderType() string {
	return "sms_gateway"
}

// Send delivers message to the recipients (comma separated numbers).
// customerName is shown by the gateway as the sender's client.
func (p *SMSProvider) Send(ctx context.Context, to, message, customerName string) (int, error) {
	if p.Endpoint == "" {
		return 0, &ProviderError{Code: ErrCodeNotConfigured, Message: "SMS endpoint is not set"}
	}
	if strings.TrimSpace(to) == "" {
		return 0, &ProviderError{Code: ErrCodeInvalidDataFormat, Message: "recipient cannot be empty"}
	}

	form := url.Values{}
	form.Set("recipients", to)
	form.Set("message", message)
	form.Set("customer_name", customerName)
	form.Set("module", p.Module)
	form.Set("category", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, &ProviderError{Code: ErrCodeNetworkError, Message: "Failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, &ProviderError{Code: ErrCodeNetworkError, Message: "SMS gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, buildHTTPError(resp.StatusCode, string(body))
	}
	return resp.StatusCode, nil
}

func buildHTTPError(statusCode int, body string) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &ProviderError{Code: ErrCodeRateLimited, Message: "SMS gateway rate limit exceeded", Details: body}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ProviderError{Code: ErrCodeRejected, Message: "SMS gateway rejected the message", Details: body}
	default:
		return &ProviderError{
			Code:    ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d from SMS gateway", statusCode),
			Details: body,
		}
	}
}
