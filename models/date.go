package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of every calendar date.
const DateLayout = "2006-01-02"

// ============================================================================
// DATE
// ============================================================================

// Date is a calendar day without time-of-day, stored in UTC.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. A full RFC3339 timestamp is accepted too,
// the time part is dropped.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src interface{}) error {
	var nd NullDate
	if err := nd.Scan(src); err != nil {
		return err
	}
	if !nd.Valid {
		return fmt.Errorf("cannot scan NULL into Date")
	}
	*d = nd.Date
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// ============================================================================
// NULLABLE DATE
// ============================================================================

// NullDate is a Date that may be SQL NULL / JSON null.
type NullDate struct {
	Date  Date
	Valid bool
}

func DateOf(d Date) NullDate {
	return NullDate{Date: d, Valid: true}
}

func (n NullDate) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Date.MarshalJSON()
}

// UnmarshalJSON treats null and "" as NULL, matching what the frontend sends
// for an empty date input.
func (n *NullDate) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		*n = NullDate{}
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	*n = DateOf(d)
	return nil
}

func (n *NullDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = NullDate{}
	case time.Time:
		*n = DateOf(NewDate(v))
	case string:
		d, err := ParseDate(v)
		if err != nil {
			return err
		}
		*n = DateOf(d)
	case []byte:
		d, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*n = DateOf(d)
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
	return nil
}

func (n NullDate) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Date.String(), nil
}
