// Package structure turns Go record types into JSON schemas that model
// providers understand, either as a tool definition or a response schema.
package structure

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

var reflector = jsonschema.Reflector{
	Anonymous:      true,
	ExpandedStruct: true,
	DoNotReference: true,
}

// Definition is a named schema for one record type.
type Definition struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema

	raw []byte
}

// For reflects the type of v (a struct or pointer to struct).
func For(v any, name, description string) (*Definition, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("invalid schema name %q", name)
	}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema %s: expected struct, got %v", name, reflect.TypeOf(v))
	}

	s := reflector.ReflectFromType(t)
	s.Version = ""
	s.ID = ""
	if s.Description == "" {
		s.Description = description
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	return &Definition{Name: name, Description: description, Schema: s, raw: raw}, nil
}

// JSON returns the serialised schema.
func (d *Definition) JSON() []byte {
	return d.raw
}

// ToolInfo exposes the definition as a single callable tool.
func (d *Definition) ToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        d.Name,
		Desc:        d.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(toParams(d.Schema)),
	}
}

func toParams(s *jsonschema.Schema) map[string]*schema.ParameterInfo {
	out := map[string]*schema.ParameterInfo{}
	if s == nil || s.Properties == nil {
		return out
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		p := toParam(pair.Value)
		p.Required = required[pair.Key]
		out[pair.Key] = p
	}
	return out
}

func toParam(s *jsonschema.Schema) *schema.ParameterInfo {
	p := &schema.ParameterInfo{
		Type: schema.DataType(s.Type),
		Desc: s.Description,
	}
	for _, e := range s.Enum {
		p.Enum = append(p.Enum, fmt.Sprint(e))
	}
	switch p.Type {
	case schema.Array:
		if s.Items != nil {
			p.ElemInfo = toParam(s.Items)
		}
	case schema.Object:
		p.SubParams = toParams(s)
	}
	return p
}
