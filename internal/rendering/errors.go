// Package rendering renders the resume page from the merged resume data.
package rendering

import (
	"errors"
	"fmt"
)

// ErrNoResume is returned by Render when the page data carries no resume
var ErrNoResume = errors.New("no resume to render")

// TemplateError wraps a failure of the page template. Op is "parse" or "execute".
type TemplateError struct {
	Op  string
	Err error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("page template %s: %v", e.Op, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
