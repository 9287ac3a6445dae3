package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "LEXFEAT_"

// loadDotEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, envError(name, v, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, envError(name, v, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, envError(name, v, err))
				return
			}
			*dst = d
		}
	}

	str("SOURCE", &c.Source)
	str("PARSER_KIND", &c.Parser.Kind)
	str("XML_DOCUMENT", &c.Parser.XML.Document)
	str("XML_TEXT", &c.Parser.XML.Text)
	str("XML_ID", &c.Parser.XML.ID)
	boolean("XML_KEEP_TREE", &c.Parser.XML.KeepTree)

	boolean("ANNOTATOR_MANAGED", &c.Annotator.Managed)
	integer("ANNOTATOR_PORT", &c.Annotator.Port)
	str("ANNOTATOR_URL", &c.Annotator.BaseURL)
	boolean("ANNOTATOR_TOKENIZE_WHITESPACE", &c.Annotator.TokenizeWhitespace)
	str("ANNOTATOR_JAVA", &c.Annotator.Java)
	str("ANNOTATOR_CLASS_PATH", &c.Annotator.ClassPath)
	str("ANNOTATOR_MEMORY", &c.Annotator.Memory)
	duration("ANNOTATOR_SHUTDOWN_TIMEOUT", &c.Annotator.ShutdownTimeout)
	if v, ok := lookup("ANNOTATOR_ANNOTATORS"); ok {
		c.Annotator.Annotators = splitList(v)
	}

	integer("RETRY_MAX", &c.Annotator.Retry.Max)
	duration("RETRY_WAIT_MIN", &c.Annotator.Retry.WaitMin)
	duration("RETRY_WAIT_MAX", &c.Annotator.Retry.WaitMax)
	if v, ok := lookup("RETRY_STATUSES"); ok {
		var statuses []int
		for _, s := range splitList(v) {
			n, err := strconv.Atoi(s)
			if err != nil {
				errs = append(errs, envError("RETRY_STATUSES", v, err))
				break
			}
			statuses = append(statuses, n)
		}
		c.Annotator.Retry.Statuses = statuses
	}

	str("STORE_PATH", &c.Store.Path)
	str("LOG_LEVEL", &c.Log.Level)

	return errors.Join(errs...)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envError(name, value string, err error) error {
	return fmt.Errorf("%w: %s%s=%q: %v", internalerr.ErrInvalidConfig, EnvPrefix, name, value, err)
}
