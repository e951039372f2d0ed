package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/xeipuuv/gojsonschema"

	"github.com/tailored-agentic-units/procure/purchase"
)

// Connect registers protobuf JSON under both names; handlers override both.
var jsonCodecNames = []string{"json", "json; charset=utf-8"}

// jsonCodec carries plain Go structs as JSON. When schema is set, request
// bodies are validated before they are decoded.
type jsonCodec struct {
	name   string
	schema *gojsonschema.Schema
}

func (c *jsonCodec) Name() string { return c.name }

func (c *jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *jsonCodec) Unmarshal(data []byte, msg any) error {
	if c.schema != nil {
		if err := validate(c.schema, data); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, msg)
}

func validate(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(details, "; "))
}

// handlerCodecs returns the codec options for procedure's handler.
func handlerCodecs(procedure string) ([]connect.HandlerOption, error) {
	data, ok := purchase.Schema(procedure)
	if !ok {
		return nil, fmt.Errorf("no request schema for %s", procedure)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", procedure, err)
	}

	opts := make([]connect.HandlerOption, 0, len(jsonCodecNames))
	for _, name := range jsonCodecNames {
		opts = append(opts, connect.WithCodec(&jsonCodec{name: name, schema: schema}))
	}
	return opts, nil
}
