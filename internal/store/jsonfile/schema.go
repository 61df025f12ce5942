package jsonfile

import (
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const collectionSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["todos", "counter"],
  "properties": {
    "counter": {"type": "integer", "minimum": 0},
    "todos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "description", "completed"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "completed": {"type": "boolean"}
        }
      }
    }
  }
}`

var collectionSchema = jsonschema.MustCompileString("todos.schema.json", collectionSchemaJSON)

// validateDocument checks a decoded JSON value against the document schema and
// flattens the schema library's error tree into one message.
func validateDocument(doc any) error {
	err := collectionSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var msgs []string
	collectLeaves(ve, &msgs)
	return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}
