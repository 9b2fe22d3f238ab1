package markdown

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	HEADER_DELIMITER = "---"
	FILE_EXTENSION   = ".md"
)

// Field is one key of the metadata header. Value is a string, number, bool
// or a slice of those.
type Field struct {
	Key   string
	Value interface{}
}

// File is a Markdown document ready to be committed.
type File struct {
	Name   string
	Header []Field
	Body   string
}

// Render returns the file content: a YAML header between delimiters
// followed by the body. Keys keep the order of Header and arrays are written
// in flow style, so the same input always renders to the same bytes.
func (f *File) Render() ([]byte, error) {
	var out bytes.Buffer

	if len(f.Header) > 0 {
		header, err := renderHeader(f.Header)
		if err != nil {
			return nil, err
		}
		out.WriteString(HEADER_DELIMITER + "\n")
		out.Write(header)
		out.WriteString(HEADER_DELIMITER + "\n")
	}

	body := strings.TrimRight(f.Body, "\n")
	if body != "" {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(body)
		out.WriteString("\n")
	}
	return out.Bytes(), nil
}

func renderHeader(fields []Field) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, field := range fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field.Key}

		value := &yaml.Node{}
		if err := value.Encode(field.Value); err != nil {
			return nil, errors.Wrapf(err, "encode header field %q", field.Key)
		}
		if value.Kind == yaml.SequenceNode {
			value.Style = yaml.FlowStyle
		}
		mapping.Content = append(mapping.Content, key, value)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(mapping); err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	return buf.Bytes(), nil
}
