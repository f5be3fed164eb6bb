// Package schema provides optional JSON Schema validation for call
// payloads and mailbox messages (C13), grounded on dsl/spec.go's
// validateSchema function: encode the candidate value as JSON, run it
// through gojsonschema, and turn validation failures into a single
// readable error.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/jsonschema"
	jschema "github.com/xeipuuv/gojsonschema"
)

// Validator wraps a compiled draft-07 schema document.
type Validator struct {
	loader jschema.JSONLoader
	source string
}

// FromDocument loads a schema from raw JSON Schema bytes.
func FromDocument(doc []byte) *Validator {
	return &Validator{loader: jschema.NewBytesLoader(doc), source: "<inline>"}
}

// FromURI loads a schema from a URI (file://, http://, or https://),
// the same reference-loader idiom dsl/spec.go uses for a step's Schema
// field.
func FromURI(uri string) *Validator {
	return &Validator{loader: jschema.NewReferenceLoader(uri), source: uri}
}

// FromStruct generates a draft-07 schema from a Go struct's shape via
// reflection (alecthomas/jsonschema) and loads it directly, for
// behaviors that want to publish and validate against a schema derived
// from their own message type rather than hand-writing one.
func FromStruct(example interface{}) (*Validator, error) {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	doc, err := json.Marshal(reflector.Reflect(example))
	if err != nil {
		return nil, fmt.Errorf("reflecting schema: %w", err)
	}
	return FromDocument(doc), nil
}

// Validate checks value (any JSON-marshalable tree, typically the
// decoded message about to reach a mailbox or Server method) against
// the schema. A non-nil error lists every violation, joined the way
// dsl/spec.go's validateSchema does.
func (v *Validator) Validate(value interface{}) error {
	bs, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value for schema validation: %w", err)
	}
	doc := jschema.NewBytesLoader(bs)

	result, err := jschema.Validate(v.loader, doc)
	if err != nil {
		return fmt.Errorf("schema (%s) validation error: %w", v.source, err)
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	complaints := make([]string, len(errs))
	for i, e := range errs {
		complaints[i] = e.String()
	}
	return fmt.Errorf("schema (%s) validation errors: %s", v.source, strings.Join(complaints, "; "))
}
