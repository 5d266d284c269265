package builtin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// BytesToJSONExecutor decodes a binary attachment (or a base64/raw string in
// JSON) to a parsed JSON value, one output item per input item.
//
// Parameters:
//   - encoding: "utf-8" | "utf-16" | "latin1" (default: "utf-8", auto-detected from BOM)
//   - binary_key: which Item.Binary entry to read (default: first one found)
//   - validate_json: error out on a parse failure instead of emitting null (default: true)
type BytesToJSONExecutor struct {
	*executor.BaseExecutor
}

// NewBytesToJSONExecutor returns a BytesToJSONExecutor.
func NewBytesToJSONExecutor() *BytesToJSONExecutor {
	return &BytesToJSONExecutor{BaseExecutor: executor.NewBaseExecutor("bytesToJson")}
}

// Execute implements engine.Executor.
func (e *BytesToJSONExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	encoding := e.GetStringDefault(node.Parameters, "encoding", "utf-8")
	validateJSON := e.GetBoolDefault(node.Parameters, "validate_json", true)
	binaryKey := e.GetStringDefault(node.Parameters, "binary_key", "")

	out := make(models.ItemSequence, 0, len(input))
	for _, item := range input {
		data, err := e.extractBytes(item, binaryKey)
		if err != nil {
			return nil, fmt.Errorf("bytesToJson: %w", err)
		}

		actualEncoding := encoding
		if encoding == "utf-8" {
			if detected := detectByteEncoding(data); detected != "" {
				actualEncoding = detected
			}
		}

		jsonStr, err := decodeToString(data, actualEncoding)
		if err != nil {
			return nil, fmt.Errorf("bytesToJson: %w", err)
		}

		var result any
		dec := json.NewDecoder(strings.NewReader(jsonStr))
		dec.UseNumber()
		if err := dec.Decode(&result); err != nil {
			if validateJSON {
				return nil, fmt.Errorf("bytesToJson: JSON parsing failed: %w", err)
			}
			result = nil
		}

		out = append(out, models.Item{JSON: result})
	}
	return out, nil
}

func (e *BytesToJSONExecutor) extractBytes(item models.Item, binaryKey string) ([]byte, error) {
	if binaryKey != "" {
		if bin, ok := item.Binary[binaryKey]; ok {
			return bin.Data, nil
		}
		return nil, fmt.Errorf("binary key %q not present on item", binaryKey)
	}
	for _, bin := range item.Binary {
		return bin.Data, nil
	}
	switch v := item.JSON.(type) {
	case string:
		if decoded, err := base64.StdEncoding.DecodeString(v); err == nil && len(v)%4 == 0 {
			return decoded, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("no binary data and JSON is not a string")
	}
}

func detectByteEncoding(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return "utf-8"
	}
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return "utf-16"
	}
	if utf8.Valid(data) {
		return "utf-8"
	}
	return ""
}

func decodeToString(data []byte, encoding string) (string, error) {
	switch encoding {
	case "utf-8":
		if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
			data = data[3:]
		}
		return string(data), nil
	case "utf-16":
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", fmt.Errorf("UTF-16 decoding failed: %w", err)
		}
		return string(decoded), nil
	case "latin1":
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return string(runes), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// JSONToBytesExecutor is the inverse of BytesToJSONExecutor: it serializes
// each item's JSON value back to a UTF-8 binary attachment.
type JSONToBytesExecutor struct {
	*executor.BaseExecutor
}

// NewJSONToBytesExecutor returns a JSONToBytesExecutor.
func NewJSONToBytesExecutor() *JSONToBytesExecutor {
	return &JSONToBytesExecutor{BaseExecutor: executor.NewBaseExecutor("jsonToBytes")}
}

// Execute implements engine.Executor.
func (e *JSONToBytesExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	fileName := e.GetStringDefault(node.Parameters, "file_name", "data.json")
	out := make(models.ItemSequence, 0, len(input))
	for _, item := range input {
		data, err := json.Marshal(item.JSON)
		if err != nil {
			return nil, fmt.Errorf("jsonToBytes: %w", err)
		}
		out = append(out, models.Item{
			JSON: item.JSON,
			Binary: map[string]models.BinaryData{
				"data": {Data: data, MimeType: "application/json", FileName: fileName},
			},
		})
	}
	return out, nil
}
