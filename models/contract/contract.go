package contract

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldDefinition describes one fillable field of a contract template.
type FieldDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FieldList is the ordered field set of a template, stored as a JSON column.
type FieldList []FieldDefinition

func (f FieldList) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *FieldList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported type %T for FieldList", value)
	}
}

// Contract is an uploaded template. Once a signature request references it,
// the row is never modified.
type Contract struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	FilePath    string    `gorm:"type:text;not null" json:"file_path"`
	FileHash    string    `gorm:"type:varchar(64);not null;index" json:"file_hash"`
	Fields      FieldList `gorm:"type:text" json:"fields"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

// FieldNames returns the template's field names in definition order.
func (c *Contract) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		names = append(names, f.Name)
	}
	return names
}
