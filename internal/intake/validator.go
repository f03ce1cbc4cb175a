package intake

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Field names accepted across schema versions
const (
	FieldVideoLink = "video_link"
	FieldVideoURL  = "video_url"
	FieldEmail     = "email"
	FieldFrameRate = "frame_rate"
)

// Schema is one revision of the intake request contract
type Schema struct {
	Version     string
	SourceField string   // field carrying the video location
	Required    []string // declaration order drives error messages
}

var schemas = map[string]Schema{
	"v1": {Version: "v1", SourceField: FieldVideoLink, Required: []string{FieldVideoLink, FieldEmail}},
	"v2": {Version: "v2", SourceField: FieldVideoURL, Required: []string{FieldVideoURL, FieldEmail}},
	"v3": {Version: "v3", SourceField: FieldVideoURL, Required: []string{FieldVideoURL, FieldFrameRate, FieldEmail}},
}

// DefaultSchemaVersion is the schema used when none is configured
const DefaultSchemaVersion = "v3"

// LookupSchema returns the schema registered under version
func LookupSchema(version string) (Schema, error) {
	if version == "" {
		version = DefaultSchemaVersion
	}
	s, ok := schemas[version]
	if !ok {
		return Schema{}, fmt.Errorf("unknown intake schema version %q", version)
	}
	return s, nil
}

// HasField reports whether name is part of the schema
func (s Schema) HasField(name string) bool {
	for _, f := range s.Required {
		if f == name {
			return true
		}
	}
	return false
}

// Fields are the validated values the admitter works with
type Fields struct {
	SourceURL string
	Email     string
	FrameRate *int
}

// Validator checks payloads against one schema. It holds no per-request state.
type Validator struct {
	schema Schema
}

func NewValidator(schema Schema) *Validator {
	return &Validator{schema: schema}
}

// Schema returns the active schema
func (v *Validator) Schema() Schema {
	return v.schema
}

// Validate reports every missing field at once, then checks types and ranges.
func (v *Validator) Validate(p Payload) (Fields, error) {
	var missing []string
	for _, name := range v.schema.Required {
		if isAbsent(p[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Fields{}, missingFields(missing)
	}

	var fields Fields
	for _, name := range v.schema.Required {
		switch name {
		case FieldFrameRate:
			rate, err := positiveInt(p[name])
			if err != nil {
				return Fields{}, invalidField(name, err.Error())
			}
			fields.FrameRate = &rate
		default:
			s, ok := p[name].(string)
			if !ok {
				return Fields{}, invalidField(name, "must be a string")
			}
			s = strings.TrimSpace(s)
			if name == v.schema.SourceField {
				fields.SourceURL = s
			} else if name == FieldEmail {
				fields.Email = s
			}
		}
	}

	return fields, nil
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func positiveInt(v any) (int, error) {
	var n int64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		n = parsed
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("must be an integer")
		}
		switch {
		case val <= 0:
			n = 0
		case val > math.MaxInt32:
			n = math.MaxInt32 + 1
		default:
			n = int64(val)
		}
	case int:
		n = int64(val)
	case int32:
		n = int64(val)
	case int64:
		n = val
	default:
		return 0, fmt.Errorf("must be an integer")
	}

	if n <= 0 {
		return 0, fmt.Errorf("must be greater than zero")
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("must be at most %d", math.MaxInt32)
	}
	return int(n), nil
}
