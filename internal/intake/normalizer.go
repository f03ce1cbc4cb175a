package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Payload is the canonical request document. It lives only for one request.
type Payload map[string]any

// Normalize turns a body that arrived either pre-parsed or as JSON text into a Payload.
// Nothing past this point looks at the wire representation.
func Normalize(body any) (Payload, error) {
	switch b := body.(type) {
	case nil:
		return nil, malformed("body is required", nil)
	case Payload:
		if b == nil {
			return nil, malformed("body is required", nil)
		}
		return b, nil
	case map[string]any:
		if b == nil {
			return nil, malformed("body is required", nil)
		}
		return Payload(b), nil
	case string:
		return decode([]byte(b))
	case []byte:
		return decode(b)
	case json.RawMessage:
		return decode(b)
	default:
		return nil, malformed("body must be a JSON object", nil)
	}
}

func decode(raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, malformed("body is required", nil)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, malformed("body is not valid JSON", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, malformed("body must contain a single JSON value", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, malformed("body must be a JSON object", nil)
	}
	return Payload(obj), nil
}
