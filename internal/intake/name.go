package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NameField is the wire form of a customer name. Older records carry a single free-text string, newer ones the
// structured first/middle/last object. Only Normalize looks inside it.
type NameField struct {
	legacy     *string
	structured *CustomerName
	// malformed holds a value that was neither a string nor an object.
	malformed json.RawMessage
}

func LegacyName(s string) NameField {
	return NameField{legacy: &s}
}

func StructuredName(n CustomerName) NameField {
	return NameField{structured: &n}
}

func (f NameField) IsLegacy() bool {
	return f.legacy != nil
}

func (f NameField) IsStructured() bool {
	return f.structured != nil
}

func (f *NameField) UnmarshalJSON(b []byte) error {
	*f = NameField{}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding legacy name: %w", err)
		}
		f.legacy = &s
	case '{':
		var n CustomerName
		if err := json.Unmarshal(trimmed, &n); err != nil {
			f.malformed = append(json.RawMessage{}, trimmed...)
			return nil
		}
		f.structured = &n
	default:
		f.malformed = append(json.RawMessage{}, trimmed...)
	}
	return nil
}

func (f NameField) MarshalJSON() ([]byte, error) {
	switch {
	case f.legacy != nil:
		return json.Marshal(*f.legacy)
	case f.structured != nil:
		return json.Marshal(*f.structured)
	default:
		return []byte("null"), nil
	}
}

// splitLegacyName turns "Jane Marie Doe" into first, middle and last tokens. Any run of whitespace separates tokens.
func splitLegacyName(s string) CustomerName {
	tokens := strings.Fields(s)
	switch len(tokens) {
	case 0:
		return CustomerName{}
	case 1:
		return CustomerName{FirstName: tokens[0]}
	default:
		return CustomerName{
			FirstName:  tokens[0],
			MiddleName: strings.Join(tokens[1:len(tokens)-1], " "),
			LastName:   tokens[len(tokens)-1],
		}
	}
}
