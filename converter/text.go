package converter

import (
	"context"
	"encoding/json"
	"fmt"

	mxj "github.com/clbanning/mxj/v2"
	"github.com/goccy/go-yaml"
)

var textMIMEs = map[string]string{
	"json": "application/json",
	"xml":  "application/xml",
	"yaml": "application/x-yaml",
}

func textConvert(source, target string) ConvertFunc {
	return func(ctx context.Context, in Payload) (Payload, error) {
		out, err := Transform(string(in.Data), source, target)
		if err != nil {
			return Payload{}, err
		}
		return Payload{
			Filename: replaceExt(in.Filename, "."+target),
			MIME:     textMIMEs[target],
			Data:     []byte(out),
		}, nil
	}
}

// Transform converts structured text between JSON, XML and YAML. It is
// pure and synchronous: the document is parsed into a generic tree and
// re-rendered in the target syntax.
func Transform(text, source, target string) (string, error) {
	tree, err := parseTree(text, source)
	if err != nil {
		return "", err
	}
	return renderTree(tree, target)
}

func parseTree(text, source string) (any, error) {
	switch source {
	case "json":
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return v, nil
	case "yaml":
		var v any
		if err := yaml.Unmarshal([]byte(text), &v); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return v, nil
	case "xml":
		mv, err := mxj.NewMapXml([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}
		return map[string]any(mv), nil
	default:
		return nil, fmt.Errorf("no text parser for %q", source)
	}
}

func renderTree(tree any, target string) (string, error) {
	switch target {
	case "json":
		out, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render JSON: %w", err)
		}
		return string(out), nil
	case "yaml":
		out, err := yaml.Marshal(tree)
		if err != nil {
			return "", fmt.Errorf("failed to render YAML: %w", err)
		}
		return string(out), nil
	case "xml":
		m, ok := tree.(map[string]any)
		if !ok {
			// XML needs a single root element; wrap scalars and arrays.
			m = map[string]any{"doc": tree}
		}
		out, err := mxj.Map(m).XmlIndent("", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to render XML: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("no text renderer for %q", target)
	}
}
