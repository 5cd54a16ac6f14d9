package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultAPIBaseURL is the public GitHub REST endpoint.
	DefaultAPIBaseURL = "https://api.github.com"
	// DefaultRawBaseURL is the public raw content CDN.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	// DefaultArchiveBaseURL is the host serving branch archives.
	DefaultArchiveBaseURL = "https://github.com"

	repositoriesPathTemplateConstant  = "%s/repos/%s"
	rawContentURLTemplateConstant     = "%s/%s/%s/%s"
	archiveURLTemplateConstant        = "%s/%s/archive/%s.zip"
	acceptHeaderNameConstant          = "Accept"
	acceptHeaderValueConstant         = "application/vnd.github+json"
	authorizationHeaderNameConstant   = "Authorization"
	authorizationHeaderTemplate       = "Bearer %s"
	userAgentHeaderNameConstant       = "User-Agent"
	userAgentHeaderValueConstant      = "ghmirror"
	errorEnvelopeMessageFieldConstant = "message"
	urlTrailingSlashConstant          = "/"
	requestIssuedMessageConstant      = "github request issued"
	requestCompletedMessageConstant   = "github request completed"
	logFieldMethodConstant            = "method"
	logFieldURLConstant               = "url"
	logFieldStatusConstant            = "status"
)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Configuration describes the endpoints and credentials used by Client.
type Configuration struct {
	APIBaseURL     string
	RawBaseURL     string
	ArchiveBaseURL string
	Token          string
}

// Client issues GitHub requests.
type Client struct {
	logger        *zap.Logger
	httpClient    HTTPClient
	configuration Configuration
}

// NewClient validates collaborators and normalizes the configured base URLs.
func NewClient(logger *zap.Logger, httpClient HTTPClient, configuration Configuration) (*Client, error) {
	if httpClient == nil {
		return nil, ErrHTTPClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := configuration
	normalized.APIBaseURL = strings.TrimRight(strings.TrimSpace(configuration.APIBaseURL), urlTrailingSlashConstant)
	if len(normalized.APIBaseURL) == 0 {
		return nil, ErrAPIBaseURLMissing
	}
	normalized.RawBaseURL = strings.TrimRight(strings.TrimSpace(configuration.RawBaseURL), urlTrailingSlashConstant)
	if len(normalized.RawBaseURL) == 0 {
		normalized.RawBaseURL = DefaultRawBaseURL
	}
	normalized.ArchiveBaseURL = strings.TrimRight(strings.TrimSpace(configuration.ArchiveBaseURL), urlTrailingSlashConstant)
	if len(normalized.ArchiveBaseURL) == 0 {
		normalized.ArchiveBaseURL = DefaultArchiveBaseURL
	}
	normalized.Token = strings.TrimSpace(configuration.Token)

	return &Client{logger: logger, httpClient: httpClient, configuration: normalized}, nil
}

// RawContentURL composes the raw content URL for a file on a branch.
func (client *Client) RawContentURL(repository string, branch string, filePath string) string {
	return fmt.Sprintf(rawContentURLTemplateConstant, client.configuration.RawBaseURL, repository, branch, filePath)
}

// ArchiveURL composes the zip archive URL for a branch.
func (client *Client) ArchiveURL(repository string, branch string) string {
	return fmt.Sprintf(archiveURLTemplateConstant, client.configuration.ArchiveBaseURL, repository, branch)
}

// GetJSON fetches repos/<endpoint> from the REST API and decodes the body.
// A JSON object with a non-null message field yields RemoteAPIError.
func (client *Client) GetJSON(executionContext context.Context, endpoint string) (any, error) {
	requestURL := fmt.Sprintf(repositoriesPathTemplateConstant, client.configuration.APIBaseURL, strings.TrimLeft(endpoint, urlTrailingSlashConstant))

	response, requestError := client.do(executionContext, requestURL, true)
	if requestError != nil {
		return nil, requestError
	}
	defer response.Body.Close()

	var payload any
	if decodingError := json.NewDecoder(response.Body).Decode(&payload); decodingError != nil {
		return nil, ResponseDecodingError{URL: requestURL, Cause: decodingError}
	}

	if envelopeError := VerifyResponse(payload); envelopeError != nil {
		return nil, envelopeError
	}

	return payload, nil
}

// GetRaw fetches an arbitrary URL and returns the body with its status code.
func (client *Client) GetRaw(executionContext context.Context, requestURL string) ([]byte, int, error) {
	response, requestError := client.do(executionContext, requestURL, false)
	if requestError != nil {
		return nil, 0, requestError
	}
	defer response.Body.Close()

	body, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, response.StatusCode, OperationError{Method: http.MethodGet, URL: requestURL, Cause: readError}
	}

	return body, response.StatusCode, nil
}

// Open starts a streaming download. The caller closes the returned body.
// The size is -1 when the server did not announce a content length.
func (client *Client) Open(executionContext context.Context, requestURL string) (io.ReadCloser, int64, error) {
	response, requestError := client.do(executionContext, requestURL, false)
	if requestError != nil {
		return nil, 0, requestError
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		response.Body.Close()
		return nil, 0, UnexpectedStatusError{URL: requestURL, StatusCode: response.StatusCode}
	}

	return response.Body, response.ContentLength, nil
}

// VerifyResponse reports RemoteAPIError when payload is a JSON object with a non-null message.
func VerifyResponse(payload any) error {
	objectPayload, isObject := payload.(map[string]any)
	if !isObject {
		return nil
	}

	message, hasMessage := objectPayload[errorEnvelopeMessageFieldConstant]
	if !hasMessage || message == nil {
		return nil
	}

	if messageText, isText := message.(string); isText {
		return RemoteAPIError{Message: messageText}
	}
	return RemoteAPIError{Message: fmt.Sprint(message)}
}

func (client *Client) do(executionContext context.Context, requestURL string, expectJSON bool) (*http.Response, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return nil, OperationError{Method: http.MethodGet, URL: requestURL, Cause: requestError}
	}

	request.Header.Set(userAgentHeaderNameConstant, userAgentHeaderValueConstant)
	if expectJSON {
		request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	}
	if len(client.configuration.Token) > 0 {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplate, client.configuration.Token))
	}

	client.logger.Debug(requestIssuedMessageConstant, zap.String(logFieldMethodConstant, http.MethodGet), zap.String(logFieldURLConstant, requestURL))

	response, executionError := client.httpClient.Do(request)
	if executionError != nil {
		return nil, OperationError{Method: http.MethodGet, URL: requestURL, Cause: executionError}
	}

	client.logger.Debug(requestCompletedMessageConstant, zap.String(logFieldURLConstant, requestURL), zap.Int(logFieldStatusConstant, response.StatusCode))

	return response, nil
}
