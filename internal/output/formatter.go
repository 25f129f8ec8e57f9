// Package output renders wwanctl results as tables, JSON, or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	Format(data any) string
}

// NewFormatter returns a Formatter for the given format string.
// Supported formats: "table" (default), "json", "yaml".
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "yaml":
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

var (
	// headerCellStyle is used for table column headers.
	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			PaddingRight(2)

	// cellStyle is used for table cells.
	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	// dimStyle is used for "no data" messages.
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)
)

// TableFormatter formats slices of structs as aligned tables and single
// structs as key/value lists. Column headers come from a field's "table"
// tag, or its upper-cased name.
type TableFormatter struct{}

func (f *TableFormatter) Format(data any) string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return dimStyle.Render("No resources found.") + "\n"
		}

		elem := v.Index(0)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			// Slice of non-struct (e.g., []string)
			var sb strings.Builder
			for i := 0; i < v.Len(); i++ {
				fmt.Fprintln(&sb, v.Index(i).Interface())
			}
			return sb.String()
		}

		t := elem.Type()
		rows := [][]string{headers(t)}
		for i := 0; i < v.Len(); i++ {
			row := v.Index(i)
			if row.Kind() == reflect.Ptr {
				row = row.Elem()
			}
			rows = append(rows, cells(row))
		}

		return renderTable(rows)
	case reflect.Struct:
		hs := headers(v.Type())
		vs := cells(v)

		rows := make([][]string, 0, len(hs))
		for i := range hs {
			rows = append(rows, []string{hs[i] + ":", vs[i]})
		}

		return renderTable(rows)
	default:
		return fmt.Sprintln(data)
	}
}

// renderTable renders rows as aligned columns. The first row is styled as a
// header unless it is a key/value list.
func renderTable(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, c := range r {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	keyValue := strings.HasSuffix(rows[0][0], ":")

	lines := make([]string, 0, len(rows))
	for n, r := range rows {
		style := cellStyle
		if n == 0 && !keyValue {
			style = headerCellStyle
		}

		cs := make([]string, 0, len(r))
		for i, c := range r {
			// The last column is not padded.
			if i == len(r)-1 {
				cs = append(cs, style.UnsetPaddingRight().Render(c))
				continue
			}

			cs = append(cs, style.Width(widths[i]+2).Render(c))
		}

		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cs...))
	}

	return strings.Join(lines, "\n") + "\n"
}

// headers returns the column headers for struct type t.
func headers(t reflect.Type) []string {
	hs := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if h := f.Tag.Get("table"); h != "" {
			hs = append(hs, h)
			continue
		}
		hs = append(hs, strings.ToUpper(f.Name))
	}

	return hs
}

// cells returns the formatted field values of struct value v.
func cells(v reflect.Value) []string {
	cs := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		s := fmt.Sprintf("%v", v.Field(i).Interface())
		if s == "" {
			s = "-"
		}
		cs = append(cs, s)
	}

	return cs
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any) string {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return string(b)
}
