package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of a robot config file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(&Config{})
}

// SchemaJSON returns Schema rendered as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
