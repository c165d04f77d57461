package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	errs "github.com/matzehuels/scenebox/pkg/errors"
)

// Format is a scene file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported scene file %q (want .toml or .hcl)", filepath.Base(path))
}

// ReadTOML decodes a TOML scene from r.
//
//	name = "card"
//	root = "card"
//
//	[[node]]
//	id = "card"
//	kind = "relative"
//	children = ["title"]
//
//	[[node]]
//	id = "title"
//	kind = "text"
//	text = "Hello"
//	[[node.relation]]
//	kind = "align_top"
//	target = "container"
//
// Unknown keys are rejected so typos surface as errors.
func ReadTOML(r io.Reader) (*Document, error) {
	var doc Document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidScene, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return &doc, nil
}

// ImportTOML reads a TOML scene file.
func ImportTOML(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	return ReadTOML(f)
}

// hclFile splits variable blocks from the rest of the body, which is
// decoded in a second pass with the variables in scope.
type hclFile struct {
	Variables []hclVariable `hcl:"variable,block"`
	Remain    hcl.Body      `hcl:",remain"`
}

type hclVariable struct {
	Name    string    `hcl:"name,label"`
	Default cty.Value `hcl:"default,optional"`
}

// ParseHCL decodes an HCL scene. Variables declared with
//
//	variable "accent" {
//	  default = "#ff8800"
//	}
//
// are available to every expression as var.accent. vars overrides defaults
// by name; an override of an undeclared variable is an error.
func ParseHCL(src []byte, filename string, vars map[string]string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, diags, "parse hcl")
	}

	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, diags, "decode variables")
	}
	values := make(map[string]cty.Value, len(root.Variables))
	for _, v := range root.Variables {
		if _, dup := values[v.Name]; dup {
			return nil, errs.New(errs.ErrCodeInvalidScene, "variable %q declared twice", v.Name)
		}
		val := v.Default
		if val == cty.NilVal {
			val = cty.NullVal(cty.DynamicPseudoType)
		}
		values[v.Name] = val
	}
	for name, raw := range vars {
		if _, ok := values[name]; !ok {
			return nil, errs.New(errs.ErrCodeInvalidInput, "variable %q is not declared", name)
		}
		values[name] = cty.StringVal(raw)
	}

	ctx := &hcl.EvalContext{Variables: map[string]cty.Value{"var": cty.EmptyObjectVal}}
	if len(values) > 0 {
		ctx.Variables["var"] = cty.ObjectVal(values)
	}
	var doc Document
	if diags := gohcl.DecodeBody(root.Remain, ctx, &doc); diags.HasErrors() {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, diags, "decode hcl")
	}
	return &doc, nil
}

// ReadHCL decodes an HCL scene from r. See [ParseHCL].
func ReadHCL(r io.Reader, filename string, vars map[string]string) (*Document, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return ParseHCL(buf.Bytes(), filename, vars)
}

// ImportHCL reads an HCL scene file.
func ImportHCL(path string, vars map[string]string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	return ParseHCL(src, path, vars)
}

// Read decodes a scene in the given format. vars only apply to HCL.
func Read(r io.Reader, format Format, vars map[string]string) (*Document, error) {
	switch format {
	case FormatTOML:
		return ReadTOML(r)
	case FormatHCL:
		return ReadHCL(r, "scene.hcl", vars)
	}
	return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported scene format %q", format)
}

// Import reads a scene file, choosing the syntax by extension.
func Import(path string, vars map[string]string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatHCL {
		return ImportHCL(path, vars)
	}
	return ImportTOML(path)
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "scene file %s", path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}
