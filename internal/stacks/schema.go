package stacks

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// catalogueSchema is the JSON Schema every stacks.json must satisfy.
const catalogueSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name", "releases"],
    "properties": {
      "name": {"type": "string", "minLength": 1},
      "logo": {"type": "string"},
      "releases": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["name", "platforms"],
          "properties": {
            "name": {"type": "string", "minLength": 1},
            "platforms": {
              "type": "array",
              "minItems": 1,
              "items": {"type": "string", "minLength": 1}
            }
          }
        }
      }
    }
  }
}`

// compileSchema compiles the embedded catalogue schema.
func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(catalogueSchema))
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("stacks.schema.json", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("stacks.schema.json")
}
