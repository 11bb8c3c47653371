package extraction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/glrkit/mcp-template-filler/internal/template"
)

// recordSchema accepts a flat JSON object of scalar values. Nested objects or
// arrays mean the model misread the task; rejecting them up front gives a
// clearer error than whatever the matcher would do with stringified JSON.
const recordSchemaJSON = `{
	"type": "object",
	"additionalProperties": {
		"type": ["string", "number", "boolean", "null"]
	}
}`

var recordSchema = jsonschema.MustCompileString("record.json", recordSchemaJSON)

// decodeRecord turns a raw model response into a fact record: strip code
// fences, validate the JSON shape, then stringify scalar values.
func decodeRecord(content string) (template.Record, error) {
	cleaned := stripCodeFences(content)
	if cleaned == "" {
		return nil, fmt.Errorf("response is empty")
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		snippet := cleaned
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		return nil, fmt.Errorf("response is not valid JSON: %w\nresponse: %s", err, snippet)
	}

	if err := recordSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match the expected shape: %w", err)
	}

	obj := doc.(map[string]any)
	record := make(template.Record, len(obj))
	for key, value := range obj {
		switch v := value.(type) {
		case string:
			record[key] = v
		case float64:
			record[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			record[key] = strconv.FormatBool(v)
		case nil:
			// Missing facts stay missing.
		}
	}
	return record, nil
}

// stripCodeFences removes a markdown fence wrapper when the model adds one.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
