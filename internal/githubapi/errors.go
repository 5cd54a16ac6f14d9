package githubapi

import (
	"errors"
	"fmt"
)

const (
	httpClientMissingMessageConstant        = "http client not configured"
	apiBaseURLMissingMessageConstant        = "api base url must be provided"
	remoteAPIErrorTemplateConstant          = "github api error: %s"
	operationErrorWithCauseTemplateConstant = "%s %s failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	unexpectedStatusErrorTemplateConstant   = "%s returned HTTP %d"
)

var (
	// ErrHTTPClientNotConfigured indicates the client was constructed without an HTTP client.
	ErrHTTPClientNotConfigured = errors.New(httpClientMissingMessageConstant)

	// ErrAPIBaseURLMissing indicates the configuration lacked an API base URL.
	ErrAPIBaseURLMissing = errors.New(apiBaseURLMissingMessageConstant)
)

// RemoteAPIError reports a GitHub error envelope. Message is copied verbatim from the response.
type RemoteAPIError struct {
	Message string
}

// Error describes the remote failure.
func (remoteError RemoteAPIError) Error() string {
	return fmt.Sprintf(remoteAPIErrorTemplateConstant, remoteError.Message)
}

// OperationError wraps transport failures for a request.
type OperationError struct {
	Method string
	URL    string
	Cause  error
}

// Error describes the transport failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Method, operationError.URL, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates the response body was not valid JSON.
type ResponseDecodingError struct {
	URL   string
	Cause error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.URL, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// UnexpectedStatusError reports a non-2xx status on endpoints without an error envelope.
type UnexpectedStatusError struct {
	URL        string
	StatusCode int
}

// Error describes the unexpected status.
func (statusError UnexpectedStatusError) Error() string {
	return fmt.Sprintf(unexpectedStatusErrorTemplateConstant, statusError.URL, statusError.StatusCode)
}
