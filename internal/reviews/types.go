package reviews

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// naiveLayouts cover timestamps emitted without a zone designator. The
// service stores UTC, so these are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Review mirrors one element of the /api/reviews payload.
type Review struct {
	ID            ID        `json:"id"`
	ContactNumber string    `json:"contact_number,omitempty"`
	UserName      string    `json:"user_name"`
	ProductName   string    `json:"product_name"`
	ProductReview string    `json:"product_review"`
	CreatedAt     Timestamp `json:"created_at"`
}

// ID is an opaque review identifier. The service sends integers, but any
// JSON string or number is accepted.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("review id is missing")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("review id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("review id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Timestamp wraps time.Time with the lenient parsing the service requires.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp accepts RFC 3339 values and zone-less ISO 8601 values
// (treated as UTC). Fractional seconds are optional in both forms.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	if ts, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return ts, nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
