// Package schema validates external JSON at the service boundary before it is
// allowed to flow into the domain model: inference provider responses and
// user-supplied import payloads.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const metadataSchema = `{
	"type": "object",
	"required": ["title", "channelName"],
	"properties": {
		"title": {"type": "string"},
		"channelName": {"type": "string"},
		"duration": {"type": "string"},
		"category": {"type": "string"}
	}
}`

const suggestionsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title", "creator", "url"],
		"properties": {
			"title": {"type": "string"},
			"creator": {"type": "string"},
			"url": {"type": "string"}
		}
	}
}`

const importSchema = `{
	"type": "object",
	"properties": {
		"videos": {"type": "array"},
		"collections": {"type": "array"},
		"version": {"type": "string"},
		"timestamp": {"type": "number"}
	}
}`

// Validator holds the compiled schemas used at the service boundary.
type Validator struct {
	metadata    *gojsonschema.Schema
	suggestions *gojsonschema.Schema
	importBlob  *gojsonschema.Schema
}

// NewValidator compiles the boundary schemas.
func NewValidator() (*Validator, error) {
	v := &Validator{}

	var err error
	if v.metadata, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(metadataSchema)); err != nil {
		return nil, fmt.Errorf("compile metadata schema: %w", err)
	}
	if v.suggestions, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(suggestionsSchema)); err != nil {
		return nil, fmt.Errorf("compile suggestions schema: %w", err)
	}
	if v.importBlob, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(importSchema)); err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}

	return v, nil
}

// ValidateMetadata checks an enrichment response against the metadata schema.
func (v *Validator) ValidateMetadata(data []byte) error {
	return v.validate(v.metadata, data, "metadata")
}

// ValidateSuggestions checks a discovery response against the suggestions schema.
func (v *Validator) ValidateSuggestions(data []byte) error {
	return v.validate(v.suggestions, data, "suggestions")
}

// ValidateImport checks an import payload is a well-formed export object.
func (v *Validator) ValidateImport(data []byte) error {
	return v.validate(v.importBlob, data, "import")
}

func (v *Validator) validate(s *gojsonschema.Schema, data []byte, name string) error {
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate %s payload: %w", name, err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("%s payload invalid: %s", name, errs[0].String())
		}
		return fmt.Errorf("%s payload invalid", name)
	}
	return nil
}
