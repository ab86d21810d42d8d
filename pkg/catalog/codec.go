package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// decodeResource parses a frontmatter document into a Resource.
// The reserved id and version keys are lifted out of the metadata block into
// the struct fields; everything else stays in Metadata so unknown
// type-specific fields round-trip losslessly.
func decodeResource(data []byte, kind core.Kind) (*core.Resource, error) {
	res := &core.Resource{
		Kind:     kind,
		Metadata: make(core.Metadata),
	}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		res.Markdown = strings.TrimSpace(string(data))
		return res, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("---"), 2)
	if len(parts) == 1 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &res.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	res.ID = metaString(res.Metadata, "id")
	res.Version = metaString(res.Metadata, "version")
	delete(res.Metadata, "id")
	delete(res.Metadata, "version")

	res.Markdown = strings.TrimSpace(string(parts[1]))
	return res, nil
}

// encodeResource serializes a Resource into a frontmatter document.
// id and version are re-injected into the metadata block; a stray reserved
// "markdown" key is stripped so the body is never duplicated into metadata.
func encodeResource(res core.Resource) ([]byte, error) {
	meta := make(core.Metadata, len(res.Metadata)+2)
	for k, v := range res.Metadata {
		if k == "markdown" {
			continue
		}
		meta[k] = v
	}
	meta["id"] = res.ID
	if res.Version != "" {
		meta["version"] = res.Version
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(meta); err != nil {
		return nil, err
	}
	encoder.Close()
	buf.WriteString("---\n")
	buf.WriteString(res.Markdown)
	if res.Markdown != "" && !strings.HasSuffix(res.Markdown, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// metaString reads a metadata value as a string, tolerating the scalar
// types YAML may produce for version-like values (1.0, 2).
func metaString(meta core.Metadata, key string) string {
	switch v := meta[key].(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
