package models

import "github.com/danielgtaylor/huma/v2"

func valueSchema() *huma.Schema {
	return &huma.Schema{
		Description: "A text, number or boolean answer",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString},
			{Type: huma.TypeNumber},
			{Type: huma.TypeBoolean},
		},
	}
}

// Schema describes Value as string | number | boolean in the OpenAPI document.
func (Value) Schema(r huma.Registry) *huma.Schema {
	return valueSchema()
}

// Schema describes UserData as an object of answers keyed by label.
func (UserData) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		AdditionalProperties: valueSchema(),
	}
}
