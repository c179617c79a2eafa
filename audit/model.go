// audit/model.go
package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionGroupAdd    = "dynamic_group_add"
	ActionGroupRemove = "dynamic_group_remove"
)

// AuditEntry records one applied membership change. Entries are append-only.
type AuditEntry struct {
	ID                string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string     `json:"user_id" gorm:"type:varchar(36);not null;index"`
	GroupID           string     `json:"group_id" gorm:"type:varchar(36);index"`
	RuleID            *string    `json:"rule_id,omitempty" gorm:"type:varchar(36)"`
	RuleSetID         *string    `json:"rule_set_id,omitempty" gorm:"type:varchar(36)"`
	Action            string     `json:"action" gorm:"not null"`
	GroupsBefore      StringList `json:"groups_before" gorm:"type:text"`
	GroupsAfter       StringList `json:"groups_after" gorm:"type:text"`
	EvaluationSummary string     `json:"evaluation_summary"`
	CreatedAt         time.Time  `json:"created_at" gorm:"index"`
}

func (AuditEntry) TableName() string {
	return "dynamic_group_audit_log"
}

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// AuditQuery filters audit entries. Zero values mean "no filter".
type AuditQuery struct {
	UserID  string
	GroupID string
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}
