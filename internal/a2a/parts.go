package a2a

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Part kinds as they appear on the wire.
const (
	KindText = "text"
	KindData = "data"
)

// ErrUnknownPartKind is returned when a part's kind is neither text nor data.
var ErrUnknownPartKind = errors.New("unknown part kind")

// Part is one unit of message content. The set of implementations is
// closed: TextPart and DataPart are the only parts.
type Part interface {
	// Kind returns the wire discriminator of the part.
	Kind() string
	isPart()
}

// TextPart carries free-form text.
type TextPart struct {
	Text string
}

// DataPart carries a structured mapping.
type DataPart struct {
	Data map[string]any
}

func (TextPart) Kind() string { return KindText }
func (DataPart) Kind() string { return KindData }

func (TextPart) isPart() {}
func (DataPart) isPart() {}

// MarshalJSON encodes the part with its kind discriminator.
func (p TextPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}{KindText, p.Text})
}

// MarshalJSON encodes the part with its kind discriminator.
func (p DataPart) MarshalJSON() ([]byte, error) {
	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(struct {
		Kind string         `json:"kind"`
		Data map[string]any `json:"data"`
	}{KindData, data})
}

// Parts is an ordered list of parts that knows how to decode itself.
type Parts []Part

// wirePart is the union of all part fields as they arrive on the wire.
type wirePart struct {
	Kind string          `json:"kind"`
	Text *string         `json:"text"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes each element by its kind. A part without a kind
// is accepted when exactly its shape is unambiguous (a text field, or a
// data object).
func (ps *Parts) UnmarshalJSON(b []byte) error {
	var raws []wirePart
	if err := json.Unmarshal(b, &raws); err != nil {
		return fmt.Errorf("parts: %w", err)
	}

	out := make(Parts, 0, len(raws))
	for i, raw := range raws {
		p, err := raw.decode()
		if err != nil {
			return fmt.Errorf("parts[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

func (w wirePart) decode() (Part, error) {
	kind := w.Kind
	if kind == "" {
		switch {
		case w.Text != nil && len(w.Data) == 0:
			kind = KindText
		case w.Text == nil && len(w.Data) > 0:
			kind = KindData
		default:
			return nil, fmt.Errorf("%w: missing kind", ErrUnknownPartKind)
		}
	}

	switch kind {
	case KindText:
		if w.Text == nil {
			return nil, errors.New("text part without text")
		}
		return TextPart{Text: *w.Text}, nil
	case KindData:
		data, err := decodeData(w.Data)
		if err != nil {
			return nil, err
		}
		return DataPart{Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPartKind, kind)
	}
}

func decodeData(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("data part must hold an object: %w", err)
	}
	return data, nil
}
