package corpus

import (
	"errors"
	"strings"
)

// Document is one logical unit of raw text, produced once per file or once per
// matched markup subtree.
type Document struct {
	ID       string // optional; empty when the source carries no id
	File     string // base name of the source file
	Path     string // source file as resolved; distinguishes equal base names
	Position int    // 0-based order of the document within its file
	Text     string

	// Attribs carries parser-specific extras (e.g. the matched XML subtree).
	Attribs map[string]any
}

// Name identifies the document in logs and errors.
func (d *Document) Name() string {
	if d.ID != "" {
		return d.ID
	}
	return d.File
}

// Blank reports whether the document holds no text worth annotating.
func (d *Document) Blank() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Validate checks if the document has required fields
func (d *Document) Validate() error {
	if strings.TrimSpace(d.File) == "" {
		return errors.New("doc file is required")
	}
	if d.Position < 0 {
		return errors.New("doc position must not be negative")
	}
	return nil
}
