package widget

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
)

// Record is the storage shape of a widget. Position fields hold whatever
// JSON the backend returned and are only interpreted by [ParsePoint].
type Record struct {
	ID             string          `json:"id" yaml:"id"`
	Type           string          `json:"type" yaml:"type"`
	Size           string          `json:"size" yaml:"size"`
	Position       json.RawMessage `json:"position,omitempty" yaml:"-"`
	WebPosition    json.RawMessage `json:"web_position,omitempty" yaml:"-"`
	MobilePosition json.RawMessage `json:"mobile_position,omitempty" yaml:"-"`
}

// PositionFor returns the raw position field for v.
func (r Record) PositionFor(v ViewMode) json.RawMessage {
	if v == Mobile {
		return r.MobilePosition
	}
	return r.WebPosition
}

// NewRecord converts a widget to its storage shape. Positions are always
// written as objects; the legacy field is written only if the widget has one.
func NewRecord(w Widget) (Record, error) {
	r := Record{ID: w.ID, Type: string(w.Type), Size: string(w.Size)}
	var err error
	if r.WebPosition, err = EncodePoint(w.Positions.Desktop); err != nil {
		return Record{}, fmt.Errorf("widget %s web_position: %w", w.ID, err)
	}
	if r.MobilePosition, err = EncodePoint(w.Positions.Mobile); err != nil {
		return Record{}, fmt.Errorf("widget %s mobile_position: %w", w.ID, err)
	}
	if w.Legacy != nil {
		if r.Position, err = EncodePoint(*w.Legacy); err != nil {
			return Record{}, fmt.Errorf("widget %s position: %w", w.ID, err)
		}
	}
	return r, nil
}

// EncodePoint returns the canonical JSON object form of p. NaN and infinite
// coordinates have no JSON form and are rejected.
func EncodePoint(p Point) (json.RawMessage, error) {
	if !p.Finite() {
		return nil, lgerrors.New(lgerrors.ErrCodeInvalidInput, "position %v is not finite", p)
	}
	return json.Marshal(p)
}

// ErrNoPosition is returned by ParsePoint when the field is absent.
var ErrNoPosition = errors.New("position absent")

// ParsePoint decodes a stored position. It accepts a JSON object with
// numeric x and y, the same object encoded as a JSON string, and numeric
// strings for the coordinates. Empty input, null and the empty string yield
// ErrNoPosition; anything else that does not decode to two finite numbers
// is an error.
func ParsePoint(raw json.RawMessage) (Point, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Point{}, ErrNoPosition
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Point{}, fmt.Errorf("decode position string: %w", err)
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) == 0 {
			return Point{}, ErrNoPosition
		}
		if inner[0] != '{' {
			return Point{}, fmt.Errorf("position string does not hold an object: %q", s)
		}
		raw = inner
	}
	if raw[0] != '{' {
		return Point{}, fmt.Errorf("position is not an object: %s", truncate(raw))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Point{}, fmt.Errorf("decode position: %w", err)
	}
	x, err := parseCoord(fields, "x")
	if err != nil {
		return Point{}, err
	}
	y, err := parseCoord(fields, "y")
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func parseCoord(fields map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("position missing %q", name)
	}
	raw = bytes.TrimSpace(raw)

	var v float64
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("position %q: %w", name, err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("position %q: %w", name, err)
		}
		v = f
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("position %q: %w", name, err)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("position %q is not finite", name)
	}
	return v, nil
}

func truncate(b []byte) string {
	const limit = 40
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
