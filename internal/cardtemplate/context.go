package cardtemplate

import "github.com/phrazzld/recall-api/internal/domain"

// NewContext builds the Handlebars context for a knowledge item. Templates see
// name, description, code, metadata and relatedKnowledge; related entries carry
// the same fields except relatedKnowledge.
func NewContext(knowledge domain.Knowledge, related []domain.Knowledge) map[string]interface{} {
	ctx := knowledgeFields(knowledge)

	rel := make([]map[string]interface{}, 0, len(related))
	for _, k := range related {
		rel = append(rel, knowledgeFields(k))
	}
	ctx["relatedKnowledge"] = rel

	return ctx
}

func knowledgeFields(k domain.Knowledge) map[string]interface{} {
	metadata := k.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return map[string]interface{}{
		"name":        k.Name,
		"description": k.Description,
		"code":        k.Code,
		"metadata":    metadata,
	}
}
