// Package explain talks to the tracer and explanation services.
//
// Three endpoints are used, all JSON over POST:
//
//	/visualize  {code, inputs}  -> tracer payload
//	/explain    {code_line}     -> {explanation}
//	/summarize  {code, trace}   -> {summary}
//
// Explanations and summaries are shown to the user verbatim. Requests are
// never retried automatically; a failure surfaces as a NETWORK_ERROR that
// the user can act on by asking again.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tracetower/pkg/buildinfo"
	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Fixed replies that never reach the service.
const (
	EmptyLine    = "This line is empty."
	NoTrace      = "Run the code first to get a summary."
	NoExplain    = "No explanation received."
	NoSummary    = "No summary received."
	httpTimeout  = 60 * time.Second
	maxBodyBytes = 32 << 20
)

// Client calls the services rooted at a base URL.
type Client struct {
	base   *url.URL
	http   *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// Options configure a Client. Zero values select defaults.
type Options struct {
	HTTP   *http.Client
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid service URL %q", baseURL)
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: httpTimeout}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Client{base: u, http: opts.HTTP, cache: opts.Cache, keyer: opts.Keyer, logger: opts.Logger}, nil
}

// Visualize runs code on the tracer and normalizes the returned payload.
// inputs is split on newlines into the program's stdin lines. A payload the
// tracer produced but that is malformed yields a usable trace together with
// a MALFORMED_TRACE error, as [trace.Normalize] does.
func (c *Client) Visualize(ctx context.Context, code, inputs string) (*trace.Trace, error) {
	body := struct {
		Code   string   `json:"code"`
		Inputs []string `json:"inputs"`
	}{code, strings.Split(inputs, "\n")}

	raw, err := c.post(ctx, "/visualize", body)
	if err != nil {
		return &trace.Trace{}, err
	}
	return trace.Normalize(raw)
}

// Explain asks for an explanation of one source line. Blank lines are
// answered locally.
func (c *Client) Explain(ctx context.Context, line string) (string, error) {
	if strings.TrimSpace(line) == "" {
		return EmptyLine, nil
	}
	key := c.keyer.HTTPKey("explain", cache.Hash([]byte(line)))
	return c.cachedText(ctx, key, func() (string, error) {
		var resp struct {
			Explanation string `json:"explanation"`
		}
		if err := c.postJSON(ctx, "/explain", map[string]string{"code_line": line}, &resp); err != nil {
			return "", err
		}
		if resp.Explanation == "" {
			return NoExplain, nil
		}
		return resp.Explanation, nil
	})
}

// ExplainLine explains line n (1-based) of code.
func (c *Client) ExplainLine(ctx context.Context, code string, n int) (string, error) {
	lines := strings.Split(code, "\n")
	if n < 1 || n > len(lines) {
		return EmptyLine, nil
	}
	return c.Explain(ctx, lines[n-1])
}

// Summarize asks for a summary of a whole run. An empty trace is answered
// locally.
func (c *Client) Summarize(ctx context.Context, code string, t *trace.Trace) (string, error) {
	if t.Len() == 0 {
		return NoTrace, nil
	}
	body := struct {
		Code  string           `json:"code"`
		Trace []trace.Snapshot `json:"trace"`
	}{code, t.Snapshots}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode summary request")
	}
	key := c.keyer.HTTPKey("summarize", cache.Hash(payload))
	return c.cachedText(ctx, key, func() (string, error) {
		var resp struct {
			Summary string `json:"summary"`
		}
		if err := c.postJSON(ctx, "/summarize", json.RawMessage(payload), &resp); err != nil {
			return "", err
		}
		if resp.Summary == "" {
			return NoSummary, nil
		}
		return resp.Summary, nil
	})
}

func (c *Client) cachedText(ctx context.Context, key string, fetch func() (string, error)) (string, error) {
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		c.logger.Debug("service cache hit", "key", key)
		return string(data), nil
	}
	text, err := fetch()
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, []byte(text), cache.ServiceTTL); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
	return text, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, v any) error {
	raw, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode %s response", path)
	}
	return nil
}

// post sends body as JSON and returns the response body of a 2xx reply.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s request", path)
	}
	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodPost, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, u.Host, u.Path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "failed to connect to the server")
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodPost, u.Host, u.Path, resp.StatusCode, time.Since(start))
	c.logger.Debug("service call", "path", u.Path, "status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(errors.ErrCodeNetwork, "HTTP error! Status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read %s response", path)
	}
	return data, nil
}

// String returns the service base URL.
func (c *Client) String() string { return c.base.String() }
