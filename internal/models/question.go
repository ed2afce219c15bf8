package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores an ordered list of strings in a JSONB column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported type %T for StringList", src)
}

// TestQuestion is a multiple-choice question attached to a subject.
// CorrectOption is sensitive: only the admin projection ever carries it,
// and the JSON tag here keeps the raw model from leaking it by accident.
type TestQuestion struct {
	ID            string     `db:"id" json:"id"`
	SubjectID     string     `db:"subject_id" json:"subject_id"`
	Question      string     `db:"question" json:"question"`
	Options       StringList `db:"options" json:"options"`
	CorrectOption int        `db:"correct_option_index" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
