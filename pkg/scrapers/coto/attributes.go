package coto

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexString decodes a JSON string or number into its text form. Anything
// else decodes to the empty string instead of failing the parent object.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*f = flexString(data)
	default:
		*f = ""
	}
	return nil
}

// attributes is an Endeca attribute map: every value is a one-element array
// wrapping a scalar, e.g. {"sku.activePrice": ["500"]}.
type attributes map[string]json.RawMessage

// first returns the first scalar stored under key. A bare scalar is accepted
// as well as an array.
func (a attributes) first(key string) (string, bool) {
	raw, ok := a[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	var v flexString
	if raw[0] == '[' {
		var values []flexString
		if err := json.Unmarshal(raw, &values); err != nil || len(values) == 0 {
			return "", false
		}
		v = values[0]
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}

	s := strings.TrimSpace(string(v))
	return s, s != ""
}

func (a attributes) firstOr(key, fallback string) string {
	if v, ok := a.first(key); ok {
		return v
	}
	return fallback
}
