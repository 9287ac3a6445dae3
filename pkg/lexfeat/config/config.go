// Package config loads lexfeat settings from YAML, a .env file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexfeat/pkg/lexfeat/annotate"
	"github.com/cognicore/lexfeat/pkg/lexfeat/docparse"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// Config is the full lexfeat configuration.
type Config struct {
	Source    string          `yaml:"source"`
	Parser    ParserConfig    `yaml:"parser"`
	Annotator AnnotatorConfig `yaml:"annotator"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

// ParserConfig selects the document parser.
type ParserConfig struct {
	Kind string    `yaml:"kind"` // text, html or xml
	XML  XMLConfig `yaml:"xml"`
}

// XMLConfig holds the XPath selectors of the xml parser.
type XMLConfig struct {
	Document string `yaml:"document"`
	Text     string `yaml:"text"`
	ID       string `yaml:"id"`
	KeepTree bool   `yaml:"keep_tree"`
}

// AnnotatorConfig describes the annotation service.
type AnnotatorConfig struct {
	Managed            bool          `yaml:"managed"`
	Port               int           `yaml:"port"`
	BaseURL            string        `yaml:"base_url"`
	TokenizeWhitespace bool          `yaml:"tokenize_whitespace"`
	Annotators         []string      `yaml:"annotators"`
	Java               string        `yaml:"java"`
	ClassPath          string        `yaml:"class_path"`
	Memory             string        `yaml:"memory"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	Retry              RetryConfig   `yaml:"retry"`
}

// RetryConfig bounds transport retries against a busy service.
type RetryConfig struct {
	Max      int           `yaml:"max"`
	WaitMin  time.Duration `yaml:"wait_min"`
	WaitMax  time.Duration `yaml:"wait_max"`
	Statuses []int         `yaml:"statuses"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	ann := annotate.DefaultOptions()
	return &Config{
		Parser: ParserConfig{
			Kind: docparse.KindText,
			XML: XMLConfig{
				Document: docparse.DefaultDocumentSelector,
				Text:     docparse.DefaultTextSelector,
				ID:       docparse.DefaultIDSelector,
			},
		},
		Annotator: AnnotatorConfig{
			Managed:         ann.Server.Managed,
			Port:            ann.Port,
			Annotators:      ann.Annotators,
			Java:            ann.Server.Java,
			ClassPath:       ann.Server.ClassPath,
			Memory:          ann.Server.Memory,
			ShutdownTimeout: ann.Server.ShutdownTimeout,
			Retry: RetryConfig{
				Max:      ann.Retry.Max,
				WaitMin:  ann.Retry.WaitMin,
				WaitMax:  ann.Retry.WaitMax,
				Statuses: ann.Retry.Statuses,
			},
		},
		Store: StoreConfig{Path: "lexfeat.db"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then .env and LEXFEAT_* environment overrides. The result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{internalerr.ErrInvalidConfig}, args...)...)
	}

	switch c.Parser.Kind {
	case docparse.KindText, docparse.KindHTML, docparse.KindXML:
	default:
		return invalid("parser.kind %q must be text, html or xml", c.Parser.Kind)
	}
	if c.Annotator.BaseURL == "" && (c.Annotator.Port <= 0 || c.Annotator.Port > 65535) {
		return invalid("annotator.port %d out of range", c.Annotator.Port)
	}
	if c.Annotator.Retry.Max < 0 {
		return invalid("annotator.retry.max must not be negative")
	}
	if c.Annotator.Retry.WaitMax < c.Annotator.Retry.WaitMin {
		return invalid("annotator.retry.wait_max %s below wait_min %s",
			c.Annotator.Retry.WaitMax, c.Annotator.Retry.WaitMin)
	}
	if c.Store.Path == "" {
		return invalid("store.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	return nil
}

// AnnotatorOptions converts the annotator section for annotate.New.
func (c *Config) AnnotatorOptions(logger *zap.Logger) annotate.Options {
	a := c.Annotator
	return annotate.Options{
		Port:               a.Port,
		BaseURL:            a.BaseURL,
		TokenizeWhitespace: a.TokenizeWhitespace,
		Annotators:         a.Annotators,
		Retry: annotate.RetryOptions{
			Max:      a.Retry.Max,
			WaitMin:  a.Retry.WaitMin,
			WaitMax:  a.Retry.WaitMax,
			Statuses: a.Retry.Statuses,
		},
		Server: annotate.ServerOptions{
			Managed:         a.Managed,
			Java:            a.Java,
			ClassPath:       a.ClassPath,
			Memory:          a.Memory,
			ShutdownTimeout: a.ShutdownTimeout,
		},
		Logger: logger,
	}
}

// XMLOptions converts the xml parser section.
func (c *Config) XMLOptions(logger *zap.Logger) docparse.XMLOptions {
	x := c.Parser.XML
	return docparse.XMLOptions{
		Document: x.Document,
		Text:     x.Text,
		ID:       x.ID,
		KeepTree: x.KeepTree,
		Logger:   logger,
	}
}

// NewLogger builds a zap logger at the configured level. Debug level gets the
// human-readable development encoder.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", internalerr.ErrInvalidConfig, err)
	}
	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
