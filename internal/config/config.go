// Package config loads hexbait's session preferences, the kind of small,
// per-user state a project config would hold: remembered search state,
// tile-cache sizing, and a default grammar path to load when none is given
// on the command line. hexbait has no concept of a project root,
// include/exclude globs, or per-language settings; a session is always
// exactly one byte source, so there is no multi-file project to configure.
package config

const (
	// DefaultTileCacheBytes bounds the statistics tile cache's memory use
	// when no .hexbait.kdl override is present.
	DefaultTileCacheBytes int64 = 64 * 1024 * 1024

	// DefaultTileCacheTiles bounds the number of distinct tiles the
	// statistics cache retains before evicting, independent of total bytes.
	DefaultTileCacheTiles = 4096

	// DefaultZoomLevel is the zoom index a fresh session starts at: the
	// coarsest level, showing the whole file in one scrollbar segment.
	DefaultZoomLevel = 0

	// DefaultMaxSearchResults caps how many hits the search engine's result
	// set is allowed to accumulate before the UI should start paginating.
	DefaultMaxSearchResults = 10000
)

// View holds remembered viewport state: the last zoom level and the
// statistics tile cache's sizing.
type View struct {
	ZoomLevel      int
	TileCacheBytes int64
	TileCacheTiles int
}

// SearchPrefs holds remembered search-box state.
type SearchPrefs struct {
	LastPattern     string
	CaseInsensitive bool
	MaxResults      int
}

// Grammar holds the default parser-definition path to load when
// --parser-definition is omitted on the command line.
type Grammar struct {
	DefaultPath string
}

// Config is hexbait's session configuration, loaded from an optional
// .hexbait.kdl file in the working directory.
type Config struct {
	Version int
	View    View
	Search  SearchPrefs
	Grammar Grammar
}

// defaultConfig returns a Config populated with the package defaults, used
// both as the fallback when no .hexbait.kdl is present and as the base a
// found file's settings are merged on top of.
func defaultConfig() *Config {
	return &Config{
		Version: 1,
		View: View{
			ZoomLevel:      DefaultZoomLevel,
			TileCacheBytes: DefaultTileCacheBytes,
			TileCacheTiles: DefaultTileCacheTiles,
		},
		Search: SearchPrefs{
			MaxResults: DefaultMaxSearchResults,
		},
	}
}

// Load looks for .hexbait.kdl in dir and returns the parsed Config, or the
// package defaults if no such file exists. An existing but malformed file
// is a real error; a missing one is not.
func Load(dir string) (*Config, error) {
	cfg, err := LoadKDL(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
