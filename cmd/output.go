package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// tabular is implemented by values that can be rendered as a table
type tabular interface {
	headers() []string
	rows() [][]string
}

// render writes v to w in the requested format
func render(w io.Writer, format string, v tabular) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		data, err := toYAML(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case formatTable, "":
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(v.headers()...).
			Rows(v.rows()...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		_, err := fmt.Fprintln(w, t.Render())
		return err
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// toYAML renders v through its JSON encoding so the YAML keys and their
// order match the stored records
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert output to yaml: %w", err)
	}
	resetStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return out, nil
}

// resetStyle drops the flow style the JSON input was parsed with
func resetStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		resetStyle(child)
	}
}
