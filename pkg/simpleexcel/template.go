package simpleexcel

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// ReportTemplate is the YAML description of a workbook layout.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate names a sheet and its columns.
type SheetTemplate struct {
	Name    string         `yaml:"name"`
	Columns []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column. FieldName is a struct field name or map key.
type ColumnConfig struct {
	FieldName     string                        `yaml:"field_name"`
	Header        string                        `yaml:"header"`
	Width         float64                       `yaml:"width"`
	FormatterName string                        `yaml:"formatter"`
	Formatter     func(interface{}) interface{} `yaml:"-"`
}

// ParseReportTemplate decodes a YAML layout.
func ParseReportTemplate(yamlConfig string) (*ReportTemplate, error) {
	if yamlConfig == "" {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(yamlConfig), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	for i, sh := range tmpl.Sheets {
		if sh.Name == "" {
			return nil, fmt.Errorf("sheet %d has no name", i)
		}
		if len(sh.Columns) == 0 {
			return nil, fmt.Errorf("sheet %s has no columns", sh.Name)
		}
	}
	return &tmpl, nil
}

// Sheet returns the sheet template with the given name.
func (t *ReportTemplate) Sheet(name string) (*SheetTemplate, bool) {
	for i := range t.Sheets {
		if t.Sheets[i].Name == name {
			return &t.Sheets[i], true
		}
	}
	return nil, false
}
