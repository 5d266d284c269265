package builtin

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// CSVToJSONExecutor converts a CSV body (from an item's JSON string field or
// a binary attachment) into one output item per data row.
//
// Parameters:
//   - delimiter: field separator, single char or "\t" (default ",")
//   - has_header: treat the first row as the header row (default true)
//   - custom_headers: header names to use when has_header is false
//   - trim_spaces: trim whitespace from headers and values (default true)
//   - skip_empty_rows: drop rows where every field is blank (default true)
//   - input_key: which JSON field holds the CSV text (default: tries csv/data/content/body/text)
type CSVToJSONExecutor struct {
	*executor.BaseExecutor
}

// NewCSVToJSONExecutor returns a CSVToJSONExecutor.
func NewCSVToJSONExecutor() *CSVToJSONExecutor {
	return &CSVToJSONExecutor{BaseExecutor: executor.NewBaseExecutor("csvToJson")}
}

// Execute implements engine.Executor. It runs once over the input sequence,
// combining every item's extracted CSV text (items are tried in order until
// one yields content), and emits one output item per parsed row.
func (e *CSVToJSONExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	delimiter := e.GetStringDefault(node.Parameters, "delimiter", ",")
	hasHeader := e.GetBoolDefault(node.Parameters, "has_header", true)
	customHeaders := e.getStringSlice(node.Parameters, "custom_headers")
	trimSpaces := e.GetBoolDefault(node.Parameters, "trim_spaces", true)
	skipEmptyRows := e.GetBoolDefault(node.Parameters, "skip_empty_rows", true)
	inputKey := e.GetStringDefault(node.Parameters, "input_key", "")

	csvContent, err := e.extractContent(input, inputKey)
	if err != nil {
		return nil, fmt.Errorf("csvToJson: %w", err)
	}
	if csvContent == "" {
		return nil, fmt.Errorf("csvToJson: input CSV content is empty")
	}

	reader := csv.NewReader(strings.NewReader(csvContent))
	reader.Comma = e.parseDelimiter(delimiter)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = trimSpaces
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvToJson: failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return models.ItemSequence{}, nil
	}

	var headers []string
	var dataStartIndex int
	switch {
	case hasHeader:
		headers, dataStartIndex = records[0], 1
	case len(customHeaders) > 0:
		headers, dataStartIndex = customHeaders, 0
	default:
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}
	if trimSpaces {
		for i := range headers {
			headers[i] = strings.TrimSpace(headers[i])
		}
	}

	out := make(models.ItemSequence, 0, len(records)-dataStartIndex)
	for i := dataStartIndex; i < len(records); i++ {
		row := records[i]
		if skipEmptyRows && isEmptyRow(row) {
			continue
		}
		obj := make(map[string]any, len(headers))
		for j, value := range row {
			if j >= len(headers) {
				break
			}
			if trimSpaces {
				value = strings.TrimSpace(value)
			}
			obj[headers[j]] = value
		}
		out = append(out, models.Item{JSON: obj})
	}
	return out, nil
}

// extractContent pulls a CSV string out of the first input item that has
// one, reading either a binary attachment or a JSON field.
func (e *CSVToJSONExecutor) extractContent(input models.ItemSequence, inputKey string) (string, error) {
	for _, item := range input {
		for _, bin := range item.Binary {
			return string(bin.Data), nil
		}
		obj, ok := item.JSON.(map[string]any)
		if !ok {
			continue
		}
		if inputKey != "" {
			if s, ok := obj[inputKey].(string); ok {
				return s, nil
			}
			continue
		}
		for _, field := range []string{"csv", "data", "content", "body", "text"} {
			if s, ok := obj[field].(string); ok {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("no CSV content found in input (tried binary data, and JSON fields csv/data/content/body/text)")
}

func (e *CSVToJSONExecutor) parseDelimiter(delimiter string) rune {
	switch delimiter {
	case "\\t", "\t":
		return '\t'
	case "\\n", "\n":
		return '\n'
	default:
		if len(delimiter) > 0 {
			return rune(delimiter[0])
		}
		return ','
	}
}

func (e *CSVToJSONExecutor) getStringSlice(params map[string]any, key string) []string {
	val, ok := params[key]
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
