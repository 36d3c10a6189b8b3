package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclDocument has no remain field, so gohcl rejects any attribute not listed here.
type hclDocument struct {
	Path       string    `hcl:"path"`
	Parameters cty.Value `hcl:"parameters"`
	Vertices   int       `hcl:"vertices"`
	Instances  int       `hcl:"instances"`
	Fov        float64   `hcl:"fov"`
}

func decodeHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	params, err := ctyParameters(doc.Parameters)
	if err != nil {
		return nil, err
	}

	return &Config{
		ShaderPath: doc.Path,
		Parameters: params,
		Vertices:   doc.Vertices,
		Instances:  doc.Instances,
		Fov:        float32(doc.Fov),
	}, nil
}

func ctyParameters(val cty.Value) (Parameters, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, errors.New("parameters must be a known object")
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("parameters must be an object, got %s", ty.FriendlyName())
	}

	params := make(Parameters, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		value, err := ctyUniform(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		params[name] = value
	}
	return params, nil
}

func ctyUniform(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, errors.New("value must be known and not null")
	}

	ty := v.Type()
	switch {
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float32()
		return f, nil
	case ty == cty.Bool:
		return boolUniform(v.True()), nil
	case ty.IsTupleType() || ty.IsListType():
		out := make([]float32, 0, v.LengthInt())
		i := 0
		for it := v.ElementIterator(); it.Next(); i++ {
			_, elem := it.Element()
			if elem.IsNull() || !elem.IsKnown() || elem.Type() != cty.Number {
				return nil, fmt.Errorf("element %d is not a number", i)
			}
			f, _ := elem.AsBigFloat().Float32()
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported %s: want a number, a bool or a list of numbers", ty.FriendlyName())
	}
}
