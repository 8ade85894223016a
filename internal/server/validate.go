package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"tasklist/internal/service"
)

const maxBodyBytes = 1 << 20

// descriptionSchema is shared by create and update; both bodies carry only a
// description. Unknown properties are ignored.
const descriptionSchema = `{
  "type": "object",
  "required": ["description"],
  "properties": {
    "description": {"type": "string", "minLength": 1, "pattern": "\\S"}
  }
}`

var requestSchemas = map[string]string{
	"create_task.json": descriptionSchema,
	"update_task.json": descriptionSchema,
}

type requestValidator struct {
	schemas map[string]*jsonschema.Schema
}

func mustCompileValidator() *requestValidator {
	c := jsonschema.NewCompiler()
	for name, src := range requestSchemas {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			panic(fmt.Sprintf("unmarshal schema %s: %v", name, err))
		}
		if err := c.AddResource(name, doc); err != nil {
			panic(fmt.Sprintf("add schema %s: %v", name, err))
		}
	}
	v := &requestValidator{schemas: make(map[string]*jsonschema.Schema, len(requestSchemas))}
	for name := range requestSchemas {
		sch, err := c.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("compile schema %s: %v", name, err))
		}
		v.schemas[name] = sch
	}
	return v
}

// decode validates body against the named schema and only then unmarshals
// it into dst. Every failure is a *service.ValidationError.
func (v *requestValidator) decode(schema string, body io.Reader, dst any) error {
	sch, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("no request schema %q", schema)
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return &service.ValidationError{Reason: "could not read request body"}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &service.ValidationError{Reason: "request body must be a JSON object"}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &service.ValidationError{Reason: "request body is not valid JSON"}
	}
	if err := sch.Validate(inst); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return schemaError(ve)
		}
		return &service.ValidationError{Reason: err.Error()}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &service.ValidationError{Reason: "request body does not match the expected shape"}
	}
	return nil
}

// schemaError reports the first leaf failure in plain words.
func schemaError(ve *jsonschema.ValidationError) *service.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.Join(ve.InstanceLocation, ".")
	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		if len(k.Missing) > 0 {
			field = k.Missing[0]
		}
		return &service.ValidationError{Field: field, Reason: "is required"}
	case *kind.Type:
		if field == "" {
			return &service.ValidationError{Reason: "request body must be a JSON object"}
		}
		return &service.ValidationError{Field: field, Reason: "must be a " + strings.Join(k.Want, " or ")}
	case *kind.MinLength:
		return &service.ValidationError{Field: field, Reason: "must not be empty"}
	case *kind.Pattern:
		return &service.ValidationError{Field: field, Reason: "must not be blank"}
	default:
		return &service.ValidationError{Field: field, Reason: "is invalid"}
	}
}
