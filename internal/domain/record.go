package domain

import (
	"sort"
	"strconv"
	"strings"
)

// FieldState tracks how much a record field can be trusted.
type FieldState string

const (
	FieldExtracted  FieldState = "extracted"
	FieldConfirmed  FieldState = "confirmed"
	FieldUnresolved FieldState = "unresolved"
)

// Field is one extracted value in a DocumentRecord.
type Field struct {
	Value        string     `json:"value"`
	Confidence   float64    `json:"confidence"`
	State        FieldState `json:"state"`
	Source       string     `json:"source,omitempty"`
	Disagreement bool       `json:"disagreement,omitempty"`
}

// Resolved reports whether the field carries a usable value.
func (f *Field) Resolved() bool {
	return f != nil && f.State != FieldUnresolved
}

// DocumentRecord accumulates the structured fields of one submitted document
// bundle. Field paths are "<document type>.<dotted path>".
//
// A confirmed field is never replaced by Set, Fill or MarkUnresolved; only
// Supersede can change it.
type DocumentRecord struct {
	DocumentID string                `json:"document_id"`
	Fields     map[string]*Field     `json:"fields"`
	Types      map[DocumentType]bool `json:"types"`
}

// NewDocumentRecord creates an empty record.
func NewDocumentRecord(documentID string) *DocumentRecord {
	return &DocumentRecord{
		DocumentID: documentID,
		Fields:     make(map[string]*Field),
		Types:      make(map[DocumentType]bool),
	}
}

// FieldPath joins a document type and a field path within it.
func FieldPath(t DocumentType, path string) string {
	return string(t) + "." + path
}

// SplitFieldPath separates the document type prefix from a field path.
func SplitFieldPath(full string) (DocumentType, string) {
	i := strings.IndexByte(full, '.')
	if i < 0 {
		return DocUnknown, full
	}
	return DocumentType(full[:i]), full[i+1:]
}

// Get returns the field at path.
func (r *DocumentRecord) Get(path string) (*Field, bool) {
	f, ok := r.Fields[path]
	return f, ok
}

// Set merges an extracted value. Empty values are ignored. Returns false when
// the existing field is confirmed and was left untouched.
func (r *DocumentRecord) Set(path, value string, confidence float64, source string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if cur, ok := r.Fields[path]; ok && cur.State == FieldConfirmed {
		return false
	}
	r.Fields[path] = &Field{Value: value, Confidence: confidence, State: FieldExtracted, Source: source}
	return true
}

// Fill sets the value only when the field is absent or unresolved.
func (r *DocumentRecord) Fill(path, value string, confidence float64, source string) bool {
	if cur, ok := r.Fields[path]; ok && cur.Resolved() {
		return false
	}
	return r.Set(path, value, confidence, source)
}

// Confirm stores a value as confirmed. An already confirmed field is kept.
func (r *DocumentRecord) Confirm(path, value string, confidence float64, source string) bool {
	if cur, ok := r.Fields[path]; ok && cur.State == FieldConfirmed {
		return false
	}
	r.Fields[path] = &Field{Value: strings.TrimSpace(value), Confidence: confidence, State: FieldConfirmed, Source: source}
	return true
}

// Supersede replaces the field unconditionally.
func (r *DocumentRecord) Supersede(path string, f Field) {
	cp := f
	r.Fields[path] = &cp
}

// MarkUnresolved records that extraction could not determine the field.
// Existing resolved values are kept.
func (r *DocumentRecord) MarkUnresolved(path, source string) bool {
	if cur, ok := r.Fields[path]; ok && cur.Resolved() {
		return false
	}
	r.Fields[path] = &Field{State: FieldUnresolved, Source: source}
	return true
}

// MarkPresent records that pages of type t were submitted.
func (r *DocumentRecord) MarkPresent(t DocumentType) {
	if t.Valid() {
		r.Types[t] = true
	}
}

// Present reports whether pages of type t were submitted.
func (r *DocumentRecord) Present(t DocumentType) bool {
	return r.Types[t]
}

// PresentTypes returns the submitted types in canonical order.
func (r *DocumentRecord) PresentTypes() []DocumentType {
	out := make([]DocumentType, 0, len(r.Types))
	for t, ok := range r.Types {
		if ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

// Has reports whether t.path holds a resolved value.
func (r *DocumentRecord) Has(t DocumentType, path string) bool {
	f, ok := r.Fields[FieldPath(t, path)]
	return ok && f.Resolved() && f.Value != ""
}

// Text returns the resolved value of t.path or "".
func (r *DocumentRecord) Text(t DocumentType, path string) string {
	f, ok := r.Fields[FieldPath(t, path)]
	if !ok || !f.Resolved() {
		return ""
	}
	return f.Value
}

var numberCleaner = strings.NewReplacer(",", "", "㎡", "", "m²", "", "m2", "", "%", "", " ", "")

// Float parses t.path as a number, tolerating thousands separators and area
// or percent suffixes.
func (r *DocumentRecord) Float(t DocumentType, path string) (float64, bool) {
	v := numberCleaner.Replace(r.Text(t, path))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool reads t.path as a tristate.
func (r *DocumentRecord) Bool(t DocumentType, path string) Tristate {
	return ParseTristate(r.Text(t, path))
}

// Paths returns all field paths in sorted order.
func (r *DocumentRecord) Paths() []string {
	out := make([]string, 0, len(r.Fields))
	for p := range r.Fields {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// UnresolvedFields lists unresolved field paths in sorted order.
func (r *DocumentRecord) UnresolvedFields() []string {
	var out []string
	for _, p := range r.Paths() {
		if !r.Fields[p].Resolved() {
			out = append(out, p)
		}
	}
	return out
}

// HasUsableFields reports whether at least one field is resolved.
func (r *DocumentRecord) HasUsableFields() bool {
	for _, f := range r.Fields {
		if f.Resolved() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r *DocumentRecord) Clone() *DocumentRecord {
	out := NewDocumentRecord(r.DocumentID)
	for p, f := range r.Fields {
		cp := *f
		out.Fields[p] = &cp
	}
	for t, ok := range r.Types {
		out.Types[t] = ok
	}
	return out
}
