package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaOptions controls how a Go value is reflected into a JSON schema.
type SchemaOptions struct {
	// Inline expands the root type and every nested type in place instead of
	// referencing them from $defs.
	Inline bool
	// Indent pretty prints the document.
	Indent bool
}

// GetSchema reflects v into a JSON schema document.
func GetSchema(v any, opts SchemaOptions) (string, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: opts.Inline,
		DoNotReference: opts.Inline,
	}

	schema := reflector.Reflect(v)

	var (
		data []byte
		err  error
	)

	if opts.Indent {
		data, err = json.MarshalIndent(schema, "", "  ")
	} else {
		data, err = json.Marshal(schema)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
