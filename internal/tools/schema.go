package tools

import (
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ParamType is the semantic type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeNumber  ParamType = "number"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
	TypeEnum    ParamType = "enum"
)

// Param describes one parameter of a tool.
type Param struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`   // For TypeEnum
	Items       ParamType `json:"items,omitempty" yaml:"items,omitempty"` // For TypeArray
}

// Schema describes a tool to the model. Params keep declaration order.
type Schema struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"parameters" yaml:"parameters"`
}

// Param looks up a parameter by name.
func (s Schema) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// RequiredParameters lists required parameter names in declaration order.
func (s Schema) RequiredParameters() []string {
	required := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return required
}

// Definition renders the parameter list as a JSON schema object.
func (s Schema) Definition() jsonschema.Definition {
	properties := make(map[string]jsonschema.Definition, len(s.Params))
	for _, p := range s.Params {
		properties[p.Name] = p.definition()
	}
	return jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: properties,
		Required:   s.RequiredParameters(),
	}
}

func (p Param) definition() jsonschema.Definition {
	def := jsonschema.Definition{Description: p.Description}
	switch p.Type {
	case TypeEnum:
		def.Type = jsonschema.String
		def.Enum = p.Enum
	case TypeArray:
		def.Type = jsonschema.Array
		items := p.Items
		if items == "" {
			items = TypeString
		}
		def.Items = &jsonschema.Definition{Type: dataType(items)}
	case TypeObject:
		def.Type = jsonschema.Object
		def.Properties = map[string]jsonschema.Definition{}
	default:
		def.Type = dataType(p.Type)
	}
	return def
}

func dataType(t ParamType) jsonschema.DataType {
	switch t {
	case TypeInteger:
		return jsonschema.Integer
	case TypeBoolean:
		return jsonschema.Boolean
	case TypeNumber:
		return jsonschema.Number
	case TypeArray:
		return jsonschema.Array
	case TypeObject:
		return jsonschema.Object
	}
	return jsonschema.String
}
