package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/executor/config"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// HTTPRequestExecutor implements the httpRequest node: one call per
// invocation against config.HTTPConfig, reusing whichever client was
// injected (a fakeable seam for tests, the real network otherwise).
type HTTPRequestExecutor struct {
	*executor.BaseExecutor
	client httpDoer
}

// NewHTTPRequestExecutor returns an HTTPRequestExecutor using the real network.
func NewHTTPRequestExecutor() *HTTPRequestExecutor {
	return &HTTPRequestExecutor{
		BaseExecutor: executor.NewBaseExecutor("httpRequest"),
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Execute implements engine.Executor.
func (e *HTTPRequestExecutor) Execute(ctx context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	cfg, err := config.ParseConfig[config.HTTPConfig](node.Parameters)
	if err != nil {
		return nil, fmt.Errorf("httpRequest: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("httpRequest: %w", err)
	}

	var bodyReader io.Reader
	if cfg.Body != nil {
		data, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("httpRequest: encode body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, cfg.Method, cfg.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("httpRequest: %w", err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	applyHTTPAuth(req, cfg.Auth)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpRequest: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpRequest: read response: %w", err)
	}

	var parsedBody any
	if err := json.Unmarshal(respBody, &parsedBody); err != nil {
		parsedBody = string(respBody)
	}

	return models.ItemSequence{{JSON: map[string]any{
		"statusCode": resp.StatusCode,
		"headers":    flattenHeaders(resp.Header),
		"body":       parsedBody,
	}}}, nil
}

func applyHTTPAuth(req *http.Request, auth *config.HTTPAuthConfig) {
	if auth == nil {
		return
	}
	switch auth.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case "basic":
		req.SetBasicAuth(auth.Username, auth.Password)
	}
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
