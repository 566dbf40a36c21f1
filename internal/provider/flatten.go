package provider

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// ParsedOutput is a model response flattened into record paths.
type ParsedOutput struct {
	Fields      map[string]string
	Confidences map[string]float64
	Raw         json.RawMessage
}

// ParseModelOutput reads the model's {"data", "confidence_scores"} answer and
// flattens both objects into dotted paths. A response that is not JSON or
// lacks "data" is a PermanentError.
func ParseModelOutput(providerName, text string) (*ParsedOutput, error) {
	text = stripFences(text)
	if !gjson.Valid(text) {
		return nil, NewPermanentError(providerName,
			eris.Errorf("parsing model JSON output (raw: %s)", truncate(text, 500)))
	}
	data := gjson.Get(text, "data")
	if !data.IsObject() {
		return nil, NewPermanentError(providerName, eris.New("model output has no data object"))
	}

	out := &ParsedOutput{
		Fields:      make(map[string]string),
		Confidences: make(map[string]float64),
		Raw:         json.RawMessage(data.Raw),
	}
	flattenInto("", data, func(path string, v gjson.Result) {
		if s := scalarString(v); s != "" {
			out.Fields[path] = s
		}
	})
	flattenInto("", gjson.Get(text, "confidence_scores"), func(path string, v gjson.Result) {
		if v.Type == gjson.Number {
			out.Confidences[path] = v.Float()
		}
	})
	return out, nil
}

// flattenInto walks objects and arrays depth-first. Arrays of scalars are
// joined into one value; arrays of objects are indexed by position.
func flattenInto(prefix string, v gjson.Result, emit func(string, gjson.Result)) {
	switch {
	case v.IsObject():
		v.ForEach(func(key, val gjson.Result) bool {
			flattenInto(join(prefix, key.String()), val, emit)
			return true
		})
	case v.IsArray():
		items := v.Array()
		if allScalars(items) {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				if s := scalarString(it); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 && prefix != "" {
				emit(prefix, gjson.Result{Type: gjson.String, Str: strings.Join(parts, ", ")})
			}
			return
		}
		for i, it := range items {
			flattenInto(join(prefix, strconv.Itoa(i)), it, emit)
		}
	default:
		if prefix != "" && v.Exists() {
			emit(prefix, v)
		}
	}
}

func allScalars(items []gjson.Result) bool {
	for _, it := range items {
		if it.IsObject() || it.IsArray() {
			return false
		}
	}
	return true
}

func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return ""
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
