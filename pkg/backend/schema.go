package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	dataEnvelopeSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string"},
    "data": {
      "type": ["array", "null"],
      "items": {"type": "object"}
    }
  }
}`
	pdfEnvelopeSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "base64": {"type": ["string", "null"]}
  }
}`
	loginEnvelopeSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string"},
    "customerId": {"type": ["string", "number", "null"]}
  }
}`
	profileEnvelopeSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "profile": {"type": ["object", "null"]}
  }
}`
)

type envelopeSchemas struct {
	data    *jsonschema.Schema
	pdf     *jsonschema.Schema
	login   *jsonschema.Schema
	profile *jsonschema.Schema
}

func compileEnvelopeSchemas() (envelopeSchemas, error) {
	var out envelopeSchemas
	for _, entry := range []struct {
		name   string
		source string
		target **jsonschema.Schema
	}{
		{"data.json", dataEnvelopeSchema, &out.data},
		{"pdf.json", pdfEnvelopeSchema, &out.pdf},
		{"login.json", loginEnvelopeSchema, &out.login},
		{"profile.json", profileEnvelopeSchema, &out.profile},
	} {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(entry.name, bytes.NewReader([]byte(entry.source))); err != nil {
			return out, fmt.Errorf("backend: load schema %s: %w", entry.name, err)
		}
		compiled, err := compiler.Compile(entry.name)
		if err != nil {
			return out, fmt.Errorf("backend: compile schema %s: %w", entry.name, err)
		}
		*entry.target = compiled
	}
	return out, nil
}

// validateEnvelope checks raw against schema and decodes it into out.
func validateEnvelope(schema *jsonschema.Schema, raw []byte, out any) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("backend: response failed validation: %w", err)
	}
	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}
