package annotate

import (
	"io"
	"time"

	"go.uber.org/zap"
)

// Defaults matching the CoreNLP server setup this client was built around.
const (
	DefaultPort            = 12345
	DefaultRetryMax        = 20
	DefaultRetryWaitMin    = 100 * time.Millisecond
	DefaultRetryWaitMax    = 2 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMemory          = "4g"
	DefaultServerClass     = "edu.stanford.nlp.pipeline.StanfordCoreNLPServer"
)

// DefaultAnnotators is the annotation stage list sent with every request.
var DefaultAnnotators = []string{"tokenize", "ssplit", "pos", "lemma", "depparse"}

// DefaultRetryStatuses are the server-busy statuses retried while the service
// warms up.
var DefaultRetryStatuses = []int{500, 502, 503, 504}

// Options configures a Client.
type Options struct {
	// Port the service listens on, on 127.0.0.1.
	Port int

	// BaseURL overrides the local endpoint (e.g. a shared remote service).
	BaseURL string

	// TokenizeWhitespace splits tokens on whitespace only.
	TokenizeWhitespace bool

	Annotators []string
	Retry      RetryOptions
	Server     ServerOptions

	Logger *zap.Logger
}

// RetryOptions bounds the transport retries.
type RetryOptions struct {
	Max      int
	WaitMin  time.Duration
	WaitMax  time.Duration
	Statuses []int
}

// ServerOptions describes the service process owned by the client.
type ServerOptions struct {
	// Managed starts the process at construction and stops it on Close.
	Managed bool

	// Command replaces the default java command line entirely.
	Command []string

	Java      string // java binary, default "java"
	ClassPath string // directory holding the CoreNLP jars
	Memory    string // JVM heap, default "4g"

	ShutdownTimeout time.Duration

	// Output receives the process stdout/stderr; nil discards it.
	Output io.Writer
}

// DefaultOptions returns options for a managed local server.
func DefaultOptions() Options {
	return Options{
		Port:       DefaultPort,
		Annotators: append([]string(nil), DefaultAnnotators...),
		Retry: RetryOptions{
			Max:      DefaultRetryMax,
			WaitMin:  DefaultRetryWaitMin,
			WaitMax:  DefaultRetryWaitMax,
			Statuses: append([]int(nil), DefaultRetryStatuses...),
		},
		Server: ServerOptions{
			Managed:         true,
			Java:            "java",
			ClassPath:       "parser",
			Memory:          DefaultMemory,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if len(o.Annotators) == 0 {
		o.Annotators = DefaultAnnotators
	}
	if o.Retry.Max < 0 {
		o.Retry.Max = 0
	}
	if o.Retry.WaitMin <= 0 {
		o.Retry.WaitMin = DefaultRetryWaitMin
	}
	if o.Retry.WaitMax < o.Retry.WaitMin {
		o.Retry.WaitMax = o.Retry.WaitMin
	}
	if o.Retry.Statuses == nil {
		o.Retry.Statuses = DefaultRetryStatuses
	}
	if o.Server.Java == "" {
		o.Server.Java = "java"
	}
	if o.Server.Memory == "" {
		o.Server.Memory = DefaultMemory
	}
	if o.Server.ShutdownTimeout <= 0 {
		o.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
