package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/guregu/null/v6"
)

// Value is a resolved record field: a number, a text, or Unknown.
// It encodes as a JSON number, a JSON string, or the string "Unknown".
type Value struct {
	Num  null.Float
	Text null.String
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{Num: null.FloatFrom(f)}
}

// Text returns a textual Value. Empty text and the Unknown marker yield an unknown Value.
func Text(s string) Value {
	if s == "" || s == Unknown {
		return Value{}
	}
	return Value{Text: null.StringFrom(s)}
}

// UnknownValue returns the unresolved Value.
func UnknownValue() Value { return Value{} }

// IsUnknown reports whether no source resolved the field.
func (v Value) IsUnknown() bool {
	return !v.Num.Valid && !v.Text.Valid
}

// Float returns the numeric payload, if any.
func (v Value) Float() (float64, bool) {
	if v.Num.Valid {
		return v.Num.Float64, true
	}
	return 0, false
}

func (v Value) String() string {
	switch {
	case v.Num.Valid:
		return strconv.FormatFloat(v.Num.Float64, 'f', -1, 64)
	case v.Text.Valid:
		return v.Text.String
	default:
		return Unknown
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.Num.Valid:
		return json.Marshal(v.Num.Float64)
	case v.Text.Valid:
		return json.Marshal(v.Text.String)
	default:
		return json.Marshal(Unknown)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Value{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value: expected number or string, got %s", data)
	}
	v.Num = null.FloatFrom(f)
	return nil
}
