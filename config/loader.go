package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/corekit-go/corekit/internal/fsutil"
)

type flatNode struct {
	key  string
	node *yaml.Node
}

// listAllMembers flattens a YAML tree into dotted-key / node pairs. Every
// node with a non-empty prefix is emitted — inner map nodes as well as
// leaves — so a consumer can bind a variable to a whole subtree or to a
// single scalar. Sequences are emitted whole at their parent key and not
// descended. A prefix that fails name validation is logged and its
// subtree skipped.
func listAllMembers(prefix string, node *yaml.Node, out *[]flatNode) {
	if node == nil {
		return
	}
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) > 0 {
			listAllMembers(prefix, node.Content[0], out)
		}
		return
	}

	if prefix != "" {
		if !isValidName(prefix) {
			logger().Error("config invalid key", "key", prefix)
			return
		}
		*out = append(*out, flatNode{key: prefix, node: node})
	}

	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			childPrefix := key
			if prefix != "" {
				childPrefix = prefix + "." + key
			}
			listAllMembers(childPrefix, node.Content[i+1], out)
		}
	}
}

// LoadFromYAML updates registered variables from a parsed YAML tree.
// Only keys that are already registered are updated; unknown keys are
// logged and skipped, never created implicitly. Scalar nodes pass their
// scalar text to FromString; structured nodes are re-serialized first.
func LoadFromYAML(root *yaml.Node) {
	var nodes []flatNode
	listAllMembers("", root, &nodes)

	for _, fn := range nodes {
		base := GetBase(fn.key)
		if base == nil {
			logger().Warn("unrecognized config key", "key", fn.key)
			continue
		}

		if fn.node.Kind == yaml.ScalarNode {
			base.FromString(fn.node.Value)
			continue
		}
		text, err := yaml.Marshal(fn.node)
		if err != nil {
			logger().Error("failed to serialize config node", "key", fn.key, "error", err)
			continue
		}
		base.FromString(string(text))
	}
}

// LoadFromConfDir loads every .yml file recursively beneath a
// project-root-relative directory. Unless force is set, a file whose
// modification time matches the cached value from the previous load is
// skipped. The cache entry is written before parsing, so a persistently
// broken file is not re-parsed until it is touched again. Parse and stat
// failures are logged and the remaining files continue.
func LoadFromConfDir(relativeDir string, force bool) error {
	files, err := fsutil.ListFilesByExt(relativeDir, ".yml")
	if err != nil {
		return fmt.Errorf("failed to enumerate config dir %q: %w", relativeDir, err)
	}

	r := defaultRegistry()
	for _, file := range files {
		mtime, err := fsutil.ModTimeUnix(file)
		if err != nil {
			logger().Warn("skip config file: stat failed", "file", file, "error", err)
			continue
		}

		r.mu.Lock()
		if !force && r.mtimes[file] == mtime {
			r.mu.Unlock()
			logger().Info("skip config file: unchanged since last load", "file", file)
			continue
		}
		r.mtimes[file] = mtime
		r.mu.Unlock()

		data, err := os.ReadFile(file)
		if err != nil {
			logger().Error("failed to read config file", "file", file, "error", err)
			continue
		}
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			logger().Error("failed to parse config file", "file", file, "error", err)
			continue
		}
		LoadFromYAML(&root)
		logger().Info("loaded config file", "file", file)
	}
	return nil
}

// LoadFile loads a single configuration file of any supported format.
// The format is taken from the extension (.yml/.yaml, .json, .toml/.tml)
// and detected from content for anything else. The parsed document is
// applied through the same flatten/update path as LoadFromYAML.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
		if format == "" {
			return fmt.Errorf("unable to determine config format for %q", path)
		}
	}

	var root yaml.Node
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse YAML config file %q: %w", path, err)
		}
	case "json", "toml":
		doc := make(map[string]any)
		if format == "json" {
			decoder := json.NewDecoder(bytes.NewReader(data))
			decoder.UseNumber()
			if err := decoder.Decode(&doc); err != nil {
				return fmt.Errorf("failed to parse JSON config file %q: %w", path, err)
			}
		} else {
			if err := toml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse TOML config file %q: %w", path, err)
			}
		}
		// Normalize through YAML so the flattener sees one node shape.
		normalized, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to normalize config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(normalized, &root); err != nil {
			return fmt.Errorf("failed to normalize config file %q: %w", path, err)
		}
	}

	LoadFromYAML(&root)
	return nil
}

// detectFileFormat determines the format from the file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml", ".tml":
		return "toml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts detection by parsing. JSON is checked
// first (strict), then YAML (a superset of JSON), then TOML.
func detectFormatFromContent(data []byte) string {
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}
	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}
	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}
	return ""
}
