/*
Package config loads the optional TOML file describing how a model is turned
into generated code.
*/
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bodgit/vox2rle/artifact"
	"github.com/bodgit/vox2rle/palette"
	"github.com/cespare/xxhash/v2"
)

// EnvConfig names the environment variable holding a default config path
const EnvConfig = "VOX2RLE_CONFIG"

// Config is the complete generator configuration.
type Config struct {
	Artifact  artifact.Options
	MaxColors int

	// Vox is the model to convert, resolved against the config file's
	// directory when loaded from a file
	Vox string

	// Cache is the path of the manifest database, empty disables it
	Cache string
}

type fileConfig struct {
	Namespace      string   `toml:"namespace"`
	Struct         string   `toml:"struct"`
	Version        int      `toml:"version"`
	Wrap           int      `toml:"wrap"`
	MaxColors      int      `toml:"max_colors"`
	HeaderIncludes []string `toml:"header_includes"`
	SourceIncludes []string `toml:"source_includes"`
	Vox            string   `toml:"vox"`
	Cache          string   `toml:"cache"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Artifact:  artifact.DefaultOptions(),
		MaxColors: palette.MaxColors,
	}
}

// Load reads path and applies every key it defines over Default().
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	dir := filepath.Dir(path)

	if meta.IsDefined("namespace") {
		cfg.Artifact.Namespace = strings.TrimSpace(raw.Namespace)
	}

	if meta.IsDefined("struct") {
		cfg.Artifact.Struct = strings.TrimSpace(raw.Struct)
	}

	if meta.IsDefined("version") {
		cfg.Artifact.Version = raw.Version
	}

	if meta.IsDefined("wrap") {
		cfg.Artifact.Wrap = raw.Wrap
	}

	if meta.IsDefined("max_colors") {
		cfg.MaxColors = raw.MaxColors
	}

	if meta.IsDefined("header_includes") {
		cfg.Artifact.HeaderIncludes = normalize(raw.HeaderIncludes)
	}

	if meta.IsDefined("source_includes") {
		cfg.Artifact.SourceIncludes = normalize(raw.SourceIncludes)
	}

	if meta.IsDefined("vox") {
		cfg.Vox = Resolve(dir, raw.Vox)
	}

	if meta.IsDefined("cache") {
		cfg.Cache = Resolve(dir, raw.Cache)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values make sense together
func (c Config) Validate() error {
	if c.Artifact.Struct == "" {
		return fmt.Errorf("config: struct name is empty")
	}
	if c.Artifact.Version < 0 {
		return fmt.Errorf("config: negative version %d", c.Artifact.Version)
	}
	if c.MaxColors < 2 || c.MaxColors > palette.MaxColors {
		return fmt.Errorf("config: max_colors must be between 2 and %d", palette.MaxColors)
	}
	return nil
}

// Fingerprint returns a digest of every setting that changes the generated
// code. Version is left out as it has a marker of its own.
func (c Config) Fingerprint() string {
	h := xxhash.New()
	fmt.Fprintf(h, "namespace=%q\n", c.Artifact.Namespace)
	fmt.Fprintf(h, "struct=%q\n", c.Artifact.Struct)
	fmt.Fprintf(h, "wrap=%d\n", c.Artifact.Wrap)
	fmt.Fprintf(h, "max_colors=%d\n", c.MaxColors)
	for _, inc := range c.Artifact.HeaderIncludes {
		fmt.Fprintf(h, "header_include=%q\n", inc)
	}
	for _, inc := range c.Artifact.SourceIncludes {
		fmt.Fprintf(h, "source_include=%q\n", inc)
	}
	return fmt.Sprintf("%016X", h.Sum64())
}

// Resolve joins path onto base unless it is already absolute.
func Resolve(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		v := strings.TrimSpace(s)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
