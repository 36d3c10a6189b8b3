package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shaderedit/internal/assets"
)

// Parameters maps uniform names to values ready to hand to the shader.
// Every value is either a float32 or a []float32.
type Parameters map[string]any

// Config is one fully loaded shader-edit document. It is replaced wholesale on
// reload and never mutated in place.
type Config struct {
	ShaderPath string
	Parameters Parameters
	Vertices   int
	Instances  int
	Fov        float32
}

// Error reports a config document that could not be read or parsed.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Loader reads config documents and resolves the shader path they contain
// against an assets root.
type Loader struct {
	root assets.Root
}

func NewLoader(root assets.Root) *Loader {
	return &Loader{root: root}
}

// Load reads and validates the document at path. The format is picked by
// extension: ".hcl" is HCL, anything else is JSON.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		cfg, err = decodeHCL(data, path)
	} else {
		cfg, err = decodeJSON(data)
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := cfg.validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	cfg.ShaderPath = l.root.Resolve(cfg.ShaderPath)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ShaderPath == "" {
		return errors.New("path must not be empty")
	}
	if c.Vertices < 0 {
		return fmt.Errorf("vertices must not be negative, got %d", c.Vertices)
	}
	if c.Instances < 0 {
		return fmt.Errorf("instances must not be negative, got %d", c.Instances)
	}
	if c.Fov <= 0 {
		return fmt.Errorf("fov must be positive, got %v", c.Fov)
	}
	return nil
}

// jsonDocument uses pointers so that a missing field can be told apart from a zero one.
type jsonDocument struct {
	Path       *string                    `json:"path"`
	Parameters map[string]json.RawMessage `json:"parameters"`
	Vertices   *int                       `json:"vertices"`
	Instances  *int                       `json:"instances"`
	Fov        *float32                   `json:"fov"`
}

func decodeJSON(data []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc jsonDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to parse config JSON: trailing data after document")
	}

	switch {
	case doc.Path == nil:
		return nil, errors.New("missing field: path")
	case doc.Parameters == nil:
		return nil, errors.New("missing field: parameters")
	case doc.Vertices == nil:
		return nil, errors.New("missing field: vertices")
	case doc.Instances == nil:
		return nil, errors.New("missing field: instances")
	case doc.Fov == nil:
		return nil, errors.New("missing field: fov")
	}

	params := make(Parameters, len(doc.Parameters))
	for name, raw := range doc.Parameters {
		value, err := jsonUniform(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		params[name] = value
	}

	return &Config{
		ShaderPath: *doc.Path,
		Parameters: params,
		Vertices:   *doc.Vertices,
		Instances:  *doc.Instances,
		Fov:        *doc.Fov,
	}, nil
}

func jsonUniform(raw json.RawMessage) (any, error) {
	var value any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case bool:
		return boolUniform(v), nil
	case []any:
		out := make([]float32, 0, len(v))
		for i, elem := range v {
			n, ok := elem.(json.Number)
			if !ok {
				return nil, fmt.Errorf("element %d is not a number", i)
			}
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, float32(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value %s: want a number, a bool or an array of numbers", raw)
	}
}

func boolUniform(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
