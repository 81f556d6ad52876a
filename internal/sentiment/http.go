package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// HTTPClassifier talks to a classification service over HTTP. The service
// accepts POST {model, texts} at /classify and responds with {results} where
// results is a same-length list of {label, score}.
type HTTPClassifier struct {
	base    *url.URL
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClassifier creates a classifier for the given server and model.
// An empty server defaults to a local service.
func NewHTTPClassifier(serverURL, model string) (*HTTPClassifier, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8801"
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		serverURL = "http://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", serverURL)
	}
	return &HTTPClassifier{
		base:   u,
		model:  model,
		client: &http.Client{},
		// One request in flight at a time with small bursts; the service is
		// typically a single local model process.
		limiter: rate.NewLimiter(rate.Limit(2), 2),
	}, nil
}

type classifyRequest struct {
	Model string   `json:"model,omitempty"`
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Results []Score `json:"results"`
}

// Classify implements Classifier.
func (h *HTTPClassifier) Classify(ctx context.Context, texts []string) ([]Score, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(classifyRequest{Model: h.model, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("encode classify request: %w", err)
	}
	endpoint := h.base.JoinPath("classify").String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classification service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classification service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	return out.Results, nil
}
