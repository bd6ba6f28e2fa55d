package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/marks/internal/log"
)

// SaveMarkers replaces the markers section of the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveMarkers(configPath string, markers []MarkerConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	markersNode := buildMarkersNode(markers)

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: "markers"},
						markersNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return fmt.Errorf("parsing config: top level is not a mapping")
		}
		found := false
		for i := 0; i < len(root.Content)-1; i += 2 {
			if root.Content[i].Value == "markers" {
				root.Content[i+1] = markersNode
				found = true
				break
			}
		}
		if !found {
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: "markers"},
				markersNode,
			)
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := writeAtomic(configPath, buf.Bytes()); err != nil {
		return err
	}
	log.Info(log.CatConfig, "saved markers", "path", configPath, "count", len(markers))
	return nil
}

// writeAtomic writes to a temp file next to path, then renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".marks.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// AddMarker appends m to markers and saves. Names must stay unique.
func AddMarker(configPath string, m MarkerConfig, markers []MarkerConfig) error {
	updated := append(append([]MarkerConfig(nil), markers...), m)
	if err := ValidateMarkers(updated); err != nil {
		return err
	}
	return SaveMarkers(configPath, updated)
}

// RemoveMarker deletes the marker called name and saves.
func RemoveMarker(configPath, name string, markers []MarkerConfig) error {
	updated := make([]MarkerConfig, 0, len(markers))
	for _, m := range markers {
		if m.Name != name {
			updated = append(updated, m)
		}
	}
	if len(updated) == len(markers) {
		return fmt.Errorf("marker %q not found", name)
	}
	return SaveMarkers(configPath, updated)
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// buildMarkersNode creates a yaml.Node representing the markers array.
func buildMarkersNode(markers []MarkerConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(markers)),
	}

	for _, m := range markers {
		mNode := &yaml.Node{Kind: yaml.MappingNode}
		mNode.Content = append(mNode.Content, scalar("name"), scalar(m.Name))

		if m.Spec != "" {
			mNode.Content = append(mNode.Content, scalar("spec"), scalar(m.Spec))
		}
		if m.Type != "" {
			mNode.Content = append(mNode.Content, scalar("type"), scalar(m.Type))
		}
		if len(m.Flags) > 0 {
			flags := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, f := range m.Flags {
				flags.Content = append(flags.Content, scalar(f))
			}
			mNode.Content = append(mNode.Content, scalar("flags"), flags)
		}
		if len(m.Patterns) > 0 {
			mNode.Content = append(mNode.Content, scalar("patterns"), buildPatternsNode(m.Patterns))
		}
		if m.Path != "" {
			mNode.Content = append(mNode.Content, scalar("path"), scalar(m.Path))
		}

		node.Content = append(node.Content, mNode)
	}

	return node
}

func buildPatternsNode(patterns []PatternConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(patterns)),
	}
	for _, p := range patterns {
		node.Content = append(node.Content, &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				scalar("color"),
				{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(p.Color)},
				scalar("pattern"),
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Pattern},
			},
		})
	}
	return node
}
