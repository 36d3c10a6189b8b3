// Package config loads the shader-edit configuration document.
//
// A document names the shader to edit, the uniform parameters passed to it
// and the geometry it is drawn with:
//
//	{
//	  "path": "shaders/wave.kage",
//	  "parameters": { "Speed": 2.5, "Tint": [1, 0.5, 0.25, 1] },
//	  "vertices": 64,
//	  "instances": 1,
//	  "fov": 2
//	}
//
// The same schema may be written in HCL when the file ends in ".hcl":
//
//	path       = "shaders/wave.kage"
//	parameters = { Speed = 2.5, Tint = [1, 0.5, 0.25, 1] }
//	vertices   = 64
//	instances  = 1
//	fov        = 2
//
// Both formats reject unknown fields. The shader path is resolved against the
// assets root before Load returns, so Config.ShaderPath is always absolute.
package config
