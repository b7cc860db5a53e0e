package cardtemplate

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/phrazzld/recall-api/internal/domain"
)

// ErrUnsupportedFormat is reported when a template is not in Handlebars format.
var ErrUnsupportedFormat = errors.New("unsupported template format")

type cachedTemplate struct {
	hash [sha256.Size]byte
	tpl  *raymond.Template
}

// Renderer compiles and executes card templates. It is safe for concurrent use.
type Renderer struct {
	sanitizer Sanitizer
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedTemplate
}

// NewRenderer creates a Renderer. A nil sanitizer selects NewDefaultSanitizer.
func NewRenderer(sanitizer Sanitizer, logger *slog.Logger) *Renderer {
	if sanitizer == nil {
		sanitizer = NewDefaultSanitizer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		sanitizer: sanitizer,
		logger:    logger.With(slog.String("component", "card_template_renderer")),
		cache:     make(map[string]cachedTemplate),
	}
}

// Render executes tpl against knowledge and related and returns sanitized HTML.
// Errors are rendered as an error fragment instead of being returned.
func (r *Renderer) Render(tpl domain.Template, knowledge domain.Knowledge, related []domain.Knowledge) string {
	if tpl.Content == "" {
		return ""
	}

	out, err := r.execute(tpl, NewContext(knowledge, related))
	if err != nil {
		r.logger.Warn("template rendering failed",
			slog.String("template_code", tpl.Code),
			slog.String("knowledge_code", knowledge.Code),
			slog.String("error", err.Error()))
		return ErrorFragment(tpl.Code, err.Error())
	}

	return r.sanitizer.Sanitize(out)
}

func (r *Renderer) execute(tpl domain.Template, ctx map[string]interface{}) (out string, err error) {
	if tpl.Format != domain.TemplateFormatHandlebars {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, tpl.Format)
	}

	compiled, err := r.compile(tpl)
	if err != nil {
		return "", err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()

	return compiled.Exec(ctx)
}

// compile returns the cached compiled template for tpl.Code, recompiling when
// the stored content no longer matches the cached hash.
func (r *Renderer) compile(tpl domain.Template) (*raymond.Template, error) {
	hash := sha256.Sum256([]byte(tpl.Content))

	r.mu.RLock()
	entry, ok := r.cache[tpl.Code]
	r.mu.RUnlock()
	if ok && entry.hash == hash {
		return entry.tpl, nil
	}

	compiled, err := raymond.Parse(tpl.Content)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[tpl.Code] = cachedTemplate{hash: hash, tpl: compiled}
	r.mu.Unlock()

	return compiled, nil
}

// Evict drops the compiled template cached under code.
func (r *Renderer) Evict(code string) {
	r.mu.Lock()
	delete(r.cache, code)
	r.mu.Unlock()
}

// Clear drops every compiled template.
func (r *Renderer) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]cachedTemplate)
	r.mu.Unlock()
}

// Len reports how many compiled templates are cached.
func (r *Renderer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// ErrorFragment is the HTML returned in place of a template that failed to render.
func ErrorFragment(templateCode, message string) string {
	return fmt.Sprintf(`<div class="template-error" data-template="%s">Error rendering template: %s</div>`,
		html.EscapeString(templateCode), html.EscapeString(message))
}

// MissingTemplateFragment is rendered for a card side whose card type has no
// template mapped to role. The fragment is tagged with the card type code.
func MissingTemplateFragment(cardTypeCode string, role domain.TemplateRole) string {
	return ErrorFragment(cardTypeCode, fmt.Sprintf("template not found for card type %s, role %s", cardTypeCode, role))
}
