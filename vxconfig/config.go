// Package vxconfig loads a tree's ambient configuration (shape, logging,
// default codec) from TOML, the format the rest of the ecosystem standardizes
// on for deployment configuration.
package vxconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/vxtree/tree"
	"github.com/janelia-flyem/vxtree/vxlog"
)

// TreeConfig is the TOML-deserializable description of a tree's fixed
// shape, background value and ambient settings. Values are int64 rather
// than a generic T because configuration is read before any particular
// Tree[T] instantiation exists; callers convert to T themselves.
type TreeConfig struct {
	Shape      ShapeConfig `toml:"shape"`
	Background int64       `toml:"background"`
	Logging    LogConfig   `toml:"logging"`
	Codec      CodecConfig `toml:"codec"`
}

// ShapeConfig mirrors tree.Shape for TOML decoding.
type ShapeConfig struct {
	LeafLog2Dim      uint `toml:"leaf_log2dim"`
	Internal1Log2Dim uint `toml:"internal1_log2dim"`
	Internal2Log2Dim uint `toml:"internal2_log2dim"`
}

// ToShape converts to a tree.Shape. A zero-value ShapeConfig yields
// tree.DefaultShape rather than a degenerate all-zero shape.
func (s ShapeConfig) ToShape() tree.Shape {
	if s.LeafLog2Dim == 0 && s.Internal1Log2Dim == 0 && s.Internal2Log2Dim == 0 {
		return tree.DefaultShape()
	}
	return tree.Shape{
		LeafLog2Dim:      s.LeafLog2Dim,
		Internal1Log2Dim: s.Internal1Log2Dim,
		Internal2Log2Dim: s.Internal2Log2Dim,
	}
}

// LogConfig configures the package-level logger; see vxlog.Configure.
type LogConfig struct {
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age"`
}

// Apply routes the package-level logger according to c.
func (c LogConfig) Apply() {
	vxlog.Configure(c.Logfile, c.MaxSize, c.MaxAge)
}

// CodecName selects which compression codec a stream uses.
type CodecName string

const (
	CodecNone   CodecName = "none"
	CodecSnappy CodecName = "snappy"
	CodecZstd   CodecName = "zstd"
)

// CodecConfig selects the default topology/buffer stream codec.
type CodecConfig struct {
	Name CodecName `toml:"name"`
}

// Registry holds every TreeConfig loaded by name, analogous to a small
// service registry keyed by tree identifier (e.g. dataset name).
type Registry struct {
	configs map[string]TreeConfig
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]TreeConfig)}
}

// Load parses a TOML file at path into a TreeConfig under the given name
// and returns the parsed config.
func (r *Registry) Load(name, path string) (TreeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TreeConfig{}, fmt.Errorf("vxconfig: reading %s: %w", path, err)
	}
	var tc TreeConfig
	if _, err := toml.Decode(string(data), &tc); err != nil {
		return TreeConfig{}, fmt.Errorf("vxconfig: parsing %s: %w", path, err)
	}
	r.configs[name] = tc
	return tc, nil
}

// Get returns the named config and whether it was found.
func (r *Registry) Get(name string) (TreeConfig, bool) {
	tc, ok := r.configs[name]
	return tc, ok
}
