package provider

import (
	"encoding/json"
	"strings"

	"housingreview/internal/domain"
)

const responseRules = `Return ONLY valid JSON with no markdown formatting, no code fences and no explanation.

Return two top-level keys: "data" and "confidence_scores".
The "confidence_scores" object mirrors "data" with floats between 0.0 and 1.0.

Value rules:
- Dates are YYYY-MM-DD.
- Numbers are plain decimals without units or thousands separators.
- Yes/no fields are true or false; use null when the document does not show it.
- Text fields not present in the document are empty strings. Never guess.`

// BuildExtractionPrompt returns the batched extraction prompt for types. The
// model answers with one object per document type under "data".
func BuildExtractionPrompt(types []domain.DocumentType) string {
	var b strings.Builder
	b.WriteString("You are extracting data from scanned Korean real-estate documents submitted for a public housing purchase review.\n")
	b.WriteString("The attached pages contain the following documents:\n")
	for _, t := range types {
		b.WriteString("- ")
		b.WriteString(string(t))
		b.WriteString(" (")
		b.WriteString(t.Label())
		b.WriteString(")\n")
	}
	b.WriteString("\nExtract each document into its own key. Fields:\n")
	for _, t := range types {
		for _, f := range schemas[t] {
			b.WriteString("- ")
			b.WriteString(domain.FieldPath(t, f.Path))
			b.WriteString(": ")
			b.WriteString(f.Description)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nThe \"data\" object must follow this schema:\n")
	b.WriteString(renderSchema(types))
	b.WriteString("\n\n")
	b.WriteString(responseRules)
	return b.String()
}

// BuildOwnerPrompt returns the prompt used when the batched extraction left
// the applicant's owner information missing or malformed.
func BuildOwnerPrompt() string {
	var b strings.Builder
	b.WriteString("The attached pages are a 주택매도신청서 (housing sale application).\n")
	b.WriteString("Read only the owner (소유자) section. If the owner is a corporation, owner.name is the full corporate name.\n\n")
	b.WriteString("The \"data\" object must follow this schema:\n")
	owner := map[string]any{}
	for _, p := range ownerPaths {
		setPath(owner, p, "")
	}
	b.WriteString(marshalSchema(map[string]any{string(domain.DocSaleApplication): owner}))
	b.WriteString("\n\n")
	b.WriteString(responseRules)
	return b.String()
}

// BuildClassificationPrompt returns the prompt that asks which document type
// a single page belongs to.
func BuildClassificationPrompt() string {
	var b strings.Builder
	b.WriteString("Identify which document the attached page belongs to. Choose exactly one id:\n")
	for _, t := range domain.AllDocumentTypes() {
		b.WriteString("- ")
		b.WriteString(string(t))
		b.WriteString(": ")
		b.WriteString(t.Label())
		b.WriteString("\n")
	}
	b.WriteString("- unknown: none of the above\n\n")
	b.WriteString(`The "data" object must be {"classification": {"document_type": "<id>"}}.`)
	b.WriteString("\n\n")
	b.WriteString(responseRules)
	return b.String()
}

func renderSchema(types []domain.DocumentType) string {
	root := map[string]any{}
	for _, t := range types {
		obj := map[string]any{}
		for _, f := range schemas[t] {
			setPath(obj, f.Path, placeholder(f.Kind))
		}
		root[string(t)] = obj
	}
	return marshalSchema(root)
}

func placeholder(k FieldKind) any {
	switch k {
	case KindNumber:
		return 0
	case KindFlag:
		return false
	default:
		return ""
	}
}

func setPath(obj map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := obj[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			obj[p] = next
		}
		obj = next
	}
	obj[parts[len(parts)-1]] = v
}

func marshalSchema(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}
