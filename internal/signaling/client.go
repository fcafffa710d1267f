// Package signaling performs the single HTTP round trip that carries an
// encoded offer to a webrtc-direct listener and returns its answer.
package signaling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// MaxAnswerSize bounds the response body accepted from a listener.
const MaxAnswerSize = 1 << 20

// ErrStatus matches every StatusError.
var ErrStatus = errors.New("signaling request failed")

// StatusError is returned when the listener answers with anything but 200.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("signaling request failed: %d %s: %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Exchanger sends an encoded offer envelope to hostPort and returns the
// encoded answer envelope.
type Exchanger interface {
	Exchange(ctx context.Context, hostPort, envelope string) (string, error)
}

// Client is an Exchanger over plain HTTP GET.
type Client struct {
	HTTPClient *http.Client
}

var _ Exchanger = (*Client)(nil)

func NewClient() *Client {
	return &Client{HTTPClient: http.DefaultClient}
}

// SignalURL is the listener endpoint carrying envelope as the signal query
// parameter.
func SignalURL(hostPort, envelope string) string {
	u := url.URL{
		Scheme:   "http",
		Host:     hostPort,
		Path:     "/",
		RawQuery: url.Values{"signal": {envelope}}.Encode(),
	}
	return u.String()
}

// Exchange performs the GET. Cancelling ctx aborts the request.
func (c *Client) Exchange(ctx context.Context, hostPort, envelope string) (string, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, SignalURL(hostPort, envelope), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signaling request: %w", err)
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("signaling request to %s failed: %w", hostPort, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxAnswerSize))
	if err != nil {
		return "", fmt.Errorf("failed to read signaling response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: response.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return string(bytes.TrimSpace(body)), nil
}
