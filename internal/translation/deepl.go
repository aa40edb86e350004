// Package translation calls the DeepL API, one request per text.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Formality is the DeepL formality option.
type Formality string

const (
	FormalityDefault Formality = "default"
	FormalityMore    Formality = "more"
	FormalityLess    Formality = "less"
)

// ParseFormality validates a user-supplied formality value.
func ParseFormality(s string) (Formality, error) {
	switch Formality(strings.ToLower(s)) {
	case FormalityDefault, "":
		return FormalityDefault, nil
	case FormalityMore:
		return FormalityMore, nil
	case FormalityLess:
		return FormalityLess, nil
	}
	return "", fmt.Errorf("invalid formality %q (want default, more or less)", s)
}

// ServiceError is a non-OK response from the translation service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("translation service error (status %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed on a retry.
func (e *ServiceError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DeepLClient translates text via the DeepL v2 REST API.
type DeepLClient struct {
	apiKey     string
	apiURL     string
	maxRetries int
	httpClient *http.Client
}

// NewDeepLClient creates a DeepL client. maxRetries bounds the attempts
// per text; retries happen only on transient failures.
func NewDeepLClient(apiKey, apiURL string, maxRetries int, timeout time.Duration) *DeepLClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &DeepLClient{
		apiKey:     apiKey,
		apiURL:     apiURL,
		maxRetries: maxRetries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// deepLResponse is the /v2/translate response body.
type deepLResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message"`
}

// Translate sends one text to DeepL and returns the translation. Only
// more/less formality is forwarded; default leaves the choice to DeepL.
func (c *DeepLClient) Translate(ctx context.Context, text, targetLang string, formality Formality) (string, error) {
	form := url.Values{}
	form.Set("auth_key", c.apiKey)
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(targetLang))
	if formality == FormalityMore || formality == FormalityLess {
		form.Set("formality", string(formality))
	}
	body := form.Encode()

	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*2) * time.Second
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying translation")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := c.doRequest(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var svcErr *ServiceError
		if errors.As(err, &svcErr) && !svcErr.Retryable() {
			return "", err
		}
	}

	return "", fmt.Errorf("translation failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *DeepLClient) doRequest(ctx context.Context, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiResp deepLResponse
		if json.Unmarshal(respBody, &apiResp) == nil && apiResp.Message != "" {
			msg = apiResp.Message
		}
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: msg}
	}

	var apiResp deepLResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Translations) == 0 {
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: "empty response: no translations"}
	}

	// DeepL may split the text; concatenate all fragments.
	var result strings.Builder
	for _, t := range apiResp.Translations {
		result.WriteString(t.Text)
	}
	return result.String(), nil
}
