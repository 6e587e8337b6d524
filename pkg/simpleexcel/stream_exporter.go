package simpleexcel

import (
	"fmt"
	"io"
	"reflect"

	"github.com/xuri/excelize/v2"
)

// StreamExporter manages a streaming Excel export session.
type StreamExporter struct {
	file       *excelize.File
	writer     io.Writer
	sheets     map[string]*StreamSheet
	order      []string
	formatters map[string]func(interface{}) interface{}
	headerID   int
}

// NewStreamExporter creates a new StreamExporter writing to w on Close.
func NewStreamExporter(w io.Writer) *StreamExporter {
	return &StreamExporter{
		file:       excelize.NewFile(),
		writer:     w,
		sheets:     make(map[string]*StreamSheet),
		formatters: make(map[string]func(interface{}) interface{}),
	}
}

// RegisterFormatter makes f available to columns whose FormatterName is name.
func (e *StreamExporter) RegisterFormatter(name string, f func(interface{}) interface{}) *StreamExporter {
	e.formatters[name] = f
	return e
}

// StreamSheet represents a single sheet in a streaming export.
type StreamSheet struct {
	exporter    *StreamExporter
	stream      *excelize.StreamWriter
	name        string
	columns     []ColumnConfig
	currentRow  int
	headerShown bool
}

// AddSheet adds a new sheet and returns a StreamSheet builder.
func (e *StreamExporter) AddSheet(name string) (*StreamSheet, error) {
	if _, ok := e.sheets[name]; ok {
		return nil, fmt.Errorf("sheet %s already exists", name)
	}

	index, err := e.file.GetSheetIndex(name)
	if err != nil {
		return nil, err
	}
	if index == -1 {
		if _, err = e.file.NewSheet(name); err != nil {
			return nil, err
		}
	}

	sw, err := e.file.NewStreamWriter(name)
	if err != nil {
		return nil, err
	}

	sheet := &StreamSheet{
		exporter:   e,
		stream:     sw,
		name:       name,
		currentRow: 1,
	}
	e.sheets[name] = sheet
	e.order = append(e.order, name)
	return sheet, nil
}

// AddTemplateSheet adds a sheet and writes the header described by tmpl.
func (e *StreamExporter) AddTemplateSheet(tmpl *SheetTemplate) (*StreamSheet, error) {
	sheet, err := e.AddSheet(tmpl.Name)
	if err != nil {
		return nil, err
	}
	if err := sheet.WriteHeader(tmpl.Columns); err != nil {
		return nil, err
	}
	return sheet, nil
}

func (e *StreamExporter) headerStyle() (int, error) {
	if e.headerID != 0 {
		return e.headerID, nil
	}
	id, err := e.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return 0, err
	}
	e.headerID = id
	return id, nil
}

// WriteHeader writes the header row for the sheet and resolves named formatters.
func (s *StreamSheet) WriteHeader(columns []ColumnConfig) error {
	s.columns = make([]ColumnConfig, len(columns))
	header := make([]interface{}, len(columns))
	for i, col := range columns {
		if col.Formatter == nil && col.FormatterName != "" {
			f, ok := s.exporter.formatters[col.FormatterName]
			if !ok {
				return fmt.Errorf("column %s: unknown formatter %q", col.FieldName, col.FormatterName)
			}
			col.Formatter = f
		}
		s.columns[i] = col
		header[i] = col.Header

		if col.Width > 0 {
			if err := s.stream.SetColWidth(i+1, i+1, col.Width); err != nil {
				return err
			}
		}
	}

	styleID, err := s.exporter.headerStyle()
	if err != nil {
		return err
	}
	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, header, excelize.RowOpts{StyleID: styleID}); err != nil {
		return err
	}
	s.currentRow++
	s.headerShown = true
	return nil
}

// WriteRow writes a single data row.
func (s *StreamSheet) WriteRow(item interface{}) error {
	if !s.headerShown {
		return fmt.Errorf("header must be written before data")
	}

	row := make([]interface{}, len(s.columns))
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	for i, col := range s.columns {
		val := extractValue(v, col.FieldName)
		if col.Formatter != nil {
			val = col.Formatter(val)
		}
		row[i] = val
	}

	cell, _ := excelize.CoordinatesToCellName(1, s.currentRow)
	if err := s.stream.SetRow(cell, row); err != nil {
		return err
	}
	s.currentRow++
	return nil
}

// WriteBatch writes a slice of data as multiple rows.
func (s *StreamSheet) WriteBatch(slice interface{}) error {
	v := reflect.ValueOf(slice)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("WriteBatch expects a slice, got %T", slice)
	}

	for i := 0; i < v.Len(); i++ {
		if err := s.WriteRow(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns the number of rows written, header included.
func (s *StreamSheet) Rows() int {
	return s.currentRow - 1
}

// Close flushes all sheets and writes the workbook to the output writer.
func (e *StreamExporter) Close() error {
	for _, name := range e.order {
		if err := e.sheets[name].stream.Flush(); err != nil {
			return err
		}
	}

	if _, ok := e.sheets["Sheet1"]; !ok && len(e.order) > 0 {
		if idx, err := e.file.GetSheetIndex(e.order[0]); err == nil {
			e.file.SetActiveSheet(idx)
		}
		if err := e.file.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	if err := e.file.Write(e.writer); err != nil {
		return err
	}
	return e.file.Close()
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	switch item.Kind() {
	case reflect.Struct:
		f := item.FieldByName(fieldName)
		if !f.IsValid() {
			return ""
		}
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				return ""
			}
			f = f.Elem()
		}
		return f.Interface()
	case reflect.Map:
		val := item.MapIndex(reflect.ValueOf(fieldName))
		if val.IsValid() {
			return val.Interface()
		}
	}
	return ""
}
