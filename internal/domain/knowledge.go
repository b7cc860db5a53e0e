package domain

// Knowledge is a canonical vocabulary item from the knowledge catalog.
type Knowledge struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TemplateRole names the side of a card a template renders.
type TemplateRole string

// Roles every card type maps to a template.
const (
	TemplateRoleFront TemplateRole = "front"
	TemplateRoleBack  TemplateRole = "back"
)

// TemplateFormatHandlebars is the only template format the renderer accepts.
const TemplateFormatHandlebars = "handlebars"

// Template is a stored card template.
type Template struct {
	Code    string `json:"code"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// CardType is a card-type definition with its role to template mapping.
type CardType struct {
	Code      string                    `json:"code"`
	Name      string                    `json:"name"`
	Templates map[TemplateRole]Template `json:"templates"`
}

// Template returns the template mapped to role, if any.
func (c *CardType) Template(role TemplateRole) (Template, bool) {
	t, ok := c.Templates[role]
	return t, ok
}
