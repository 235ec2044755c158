package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// AnswerValue stores a question's correct answer or a respondent's submitted
// value as raw JSON. Answer payloads are mixed-typed (string, number or array
// of either), so the column keeps the JSON encoding and the scoring engine
// decodes it per question type.
type AnswerValue json.RawMessage

func (v AnswerValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return []byte(v), nil
}

func (v *AnswerValue) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = nil
	case []byte:
		*v = append((*v)[:0], s...)
	case string:
		*v = AnswerValue(s)
	default:
		return fmt.Errorf("cannot scan %T into AnswerValue", src)
	}
	return nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.IsNull() {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	if v == nil {
		return errors.New("models: UnmarshalJSON on nil AnswerValue")
	}
	*v = append((*v)[:0], data...)
	return nil
}

func (v AnswerValue) IsNull() bool {
	return len(v) == 0 || string(v) == "null"
}
