package remote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable covers every way the remote document can fail: transport errors,
// non-2xx responses and bodies that are not a status document.
var ErrUnavailable = errors.New("remote status unavailable")

// Document is the hosted status file. Only maintenanceMode is interpreted.
type Document struct {
	// Raw is the field as published: a bool or a string.
	Raw any
}

// Enabled is the normalized flag.
func (d Document) Enabled() bool { return Normalize(d.Raw) }

// Normalize reports true only for the boolean true or the exact string "true".
func Normalize(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// ParseDocument decodes a status document body.
func ParseDocument(b []byte) (Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	rawField, ok := fields["maintenanceMode"]
	if !ok {
		return Document{}, errors.New("maintenanceMode field missing")
	}
	var v any
	if err := json.Unmarshal(rawField, &v); err != nil {
		return Document{}, fmt.Errorf("decode maintenanceMode: %w", err)
	}
	switch v.(type) {
	case bool, string:
		return Document{Raw: v}, nil
	default:
		return Document{}, fmt.Errorf("maintenanceMode has unsupported type %T", v)
	}
}
