package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileHeader is written above a freshly saved config.
const fileHeader = `# oversee configuration
# Environment variables override any key: OVERSEE_INTERVAL=2s, OVERSEE_TIMELINE_SCOPE=120s
`

// Save writes cfg to path as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fileHeader + "\n" + string(data)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue sets a dotted key (e.g. "timeline.scope") in the config file at
// path. It preserves the existing YAML structure and comments, creating
// intermediate mappings when they are missing. A missing file is created.
func SetValue(path, key string, value any) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key %q", key)
		}
	}

	var root yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		data = nil
	case err != nil:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if root.Kind == 0 {
		root = yaml.Node{
			Kind:        yaml.DocumentNode,
			HeadComment: strings.TrimSpace(fileHeader),
			Content:     []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if root.Kind != yaml.DocumentNode {
		return fmt.Errorf("invalid YAML document structure")
	}
	if len(root.Content) == 0 {
		root.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	// Walk to the parent mapping, creating it as needed
	for _, part := range parts[:len(parts)-1] {
		next := findMapValue(node, part)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalarKey(part), next)
		}
		if next.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a section, can't set %s", part, key)
		}
		node = next
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}

	leaf := parts[len(parts)-1]
	if existing := findMapValue(node, leaf); existing != nil {
		// Keep comments attached to the old value
		valueNode.HeadComment = existing.HeadComment
		valueNode.LineComment = existing.LineComment
		valueNode.FootComment = existing.FootComment
		*existing = valueNode
	} else {
		node.Content = append(node.Content, scalarKey(leaf), &valueNode)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ParseValue converts a command-line string to the YAML value it denotes,
// so "true" becomes a bool, "5" an int and "[30s, 60s]" a list.
func ParseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	return v
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}

func scalarKey(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}
