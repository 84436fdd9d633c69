package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from a .hexbait.kdl file in dir.
// Returns (nil, nil) when no such file exists, so callers fall back to
// defaultConfig without treating a missing file as an error.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, ".hexbait.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .hexbait.kdl: %w", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg.Grammar.DefaultPath != "" && !filepath.IsAbs(cfg.Grammar.DefaultPath) {
		cfg.Grammar.DefaultPath = filepath.Clean(filepath.Join(dir, cfg.Grammar.DefaultPath))
	}

	return cfg, nil
}

// parseKDL parses a .hexbait.kdl document's text into a Config, starting
// from the package defaults and overwriting only the fields the document
// sets.
func parseKDL(content string) (*Config, error) {
	cfg := defaultConfig()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "view":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "zoom_level":
					if v, ok := firstIntArg(cn); ok {
						cfg.View.ZoomLevel = v
					}
				case "tile_cache_bytes":
					if v, ok := firstStringArg(cn); ok {
						if size, err := parseSize(v); err == nil {
							cfg.View.TileCacheBytes = size
						}
					} else if v, ok := firstIntArg(cn); ok {
						cfg.View.TileCacheBytes = int64(v)
					}
				case "tile_cache_tiles":
					if v, ok := firstIntArg(cn); ok {
						cfg.View.TileCacheTiles = v
					}
				}
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "last_pattern":
					if v, ok := firstStringArg(cn); ok {
						cfg.Search.LastPattern = v
					}
				case "case_insensitive":
					if v, ok := firstBoolArg(cn); ok {
						cfg.Search.CaseInsensitive = v
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				}
			}
		case "grammar":
			for _, cn := range n.Children {
				assignSimpleString(cn, "default_path", func(v string) { cfg.Grammar.DefaultPath = v })
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize parses sizes like "64MB", "512KB", "1GB" into a byte count.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
