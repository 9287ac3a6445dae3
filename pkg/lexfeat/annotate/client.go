// Package annotate talks to a CoreNLP-compatible annotation server and turns
// its responses into corpus sentences.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// Error prefixes the server uses for requests it will never complete.
const (
	tooLongPrefix  = "Request is too long"
	timedOutPrefix = "CoreNLP request timed out"
)

// Client owns one annotation service instance and sends it documents.
//
// A Client issues one request per Parse call and is not meant to be shared
// between goroutines; use one client per worker or serialize calls.
type Client struct {
	endpoint string
	http     *retryablehttp.Client
	server   *Server
	logger   *zap.Logger

	closeOnce sync.Once
}

// New builds a client and, for a managed server, starts the service process.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	endpoint, err := buildEndpoint(opts)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: endpoint,
		logger:   opts.Logger,
	}
	c.http = newHTTPClient(opts.Retry, opts.Logger)

	if opts.Server.Managed && opts.BaseURL == "" {
		srv, err := StartServer(opts.Server, opts.Port, opts.Logger)
		if err != nil {
			return nil, err
		}
		c.server = srv
	}
	return c, nil
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Server returns the owned service process, or nil for an external service.
func (c *Client) Server() *Server {
	return c.server
}

// Close stops the owned service process. It is safe to call more than once;
// teardown failures are logged and never returned.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.server != nil {
			c.server.Stop()
		}
		c.http.HTTPClient.CloseIdleConnections()
	})
	return nil
}

// Parse annotates text and yields its sentences in order. Whitespace-only
// text yields nothing. Failures are yielded once, wrapped in a
// *internalerr.DocumentError naming docID and docName, and end the sequence.
func (c *Client) Parse(ctx context.Context, text, docID, docName string) iter.Seq2[*corpus.Sentence, error] {
	return func(yield func(*corpus.Sentence, error) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		fail := func(err error) {
			yield(nil, &internalerr.DocumentError{DocID: docID, DocName: docName, Err: err})
		}

		content, err := c.annotate(ctx, text)
		if err != nil {
			fail(err)
			return
		}

		var resp response
		if err := json.Unmarshal(content, &resp); err != nil {
			fail(fmt.Errorf("decode annotation response: %w", err))
			return
		}

		src := newSource(text)
		for i, b := range resp.Sentences {
			s, err := b.sentence(src, i)
			if err != nil {
				fail(err)
				return
			}
			s.DocID = docID
			s.DocName = docName
			if !yield(s, nil) {
				return
			}
		}
	}
}

// annotate posts text and returns the trimmed response body.
func (c *Client) annotate(ctx context.Context, text string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, []byte(text))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read annotation response: %w", err)
	}
	content := bytes.TrimSpace(data)

	if err := terminalError(content); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("annotation service returned %d: %s", resp.StatusCode, truncate(content, 200))
	}
	return content, nil
}

func terminalError(content []byte) error {
	switch {
	case bytes.HasPrefix(content, []byte(tooLongPrefix)):
		return fmt.Errorf("%w: %s", internalerr.ErrDocumentTooLarge, truncate(content, 200))
	case bytes.HasPrefix(content, []byte(timedOutPrefix)):
		return fmt.Errorf("%w: %s", internalerr.ErrProcessingTimeout, truncate(content, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func buildEndpoint(opts Options) (string, error) {
	props := map[string]string{
		"annotators":   strings.Join(opts.Annotators, ","),
		"outputFormat": "json",
	}
	if opts.TokenizeWhitespace {
		props["tokenize.whitespace"] = "true"
	}
	encoded, err := json.Marshal(props)
	if err != nil {
		return "", err
	}

	base := opts.BaseURL
	if base == "" {
		base = fmt.Sprintf("http://127.0.0.1:%d/", opts.Port)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("annotation endpoint %q: %w: %v", base, internalerr.ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("properties", string(encoded))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func newHTTPClient(opts RetryOptions, logger *zap.Logger) *retryablehttp.Client {
	statuses := make(map[int]bool, len(opts.Statuses))
	for _, s := range opts.Statuses {
		statuses[s] = true
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.Max
	hc.RetryWaitMin = opts.WaitMin
	hc.RetryWaitMax = opts.WaitMax
	hc.Logger = leveledLogger{logger.Sugar()}
	hc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		if !statuses[resp.StatusCode] {
			return false, nil
		}
		// Busy statuses are retried unless the body says the document
		// itself is the problem.
		data, rerr := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))
		if rerr != nil {
			return false, nil
		}
		return terminalError(bytes.TrimSpace(data)) == nil, nil
	}
	hc.ErrorHandler = func(resp *http.Response, err error, numTries int) (*http.Response, error) {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if err == nil && resp != nil {
			err = fmt.Errorf("last status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: giving up after %d attempt(s): %v", internalerr.ErrServiceUnavailable, numTries, err)
	}
	return hc
}

// leveledLogger routes retryablehttp logs to zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
