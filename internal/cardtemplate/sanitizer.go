package cardtemplate

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips unsafe markup from rendered HTML.
type Sanitizer interface {
	Sanitize(html string) string
}

// NewDefaultSanitizer returns a bluemonday user-generated-content policy. It
// removes script elements, inline event handlers and javascript: URIs while
// keeping ordinary formatting markup.
func NewDefaultSanitizer() Sanitizer {
	return bluemonday.UGCPolicy()
}
