// Package pipeline provides the load → layout → render pipeline of scenebox.
//
// This package implements the complete pipeline used by both the CLI and the
// HTTP API. By centralizing this logic, both entry points share caching,
// validation and error codes.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a TOML or HCL scene and build the object tree
//  2. Layout: Solve every container and flatten the placements
//  3. Render: Produce the requested outputs (PNG, JPEG, JSON, DOT, SVG)
//
// Layouts and artifacts are cached by the content hash of the scene and the
// options that affect them. The scene itself is always rebuilt; it is cheap
// compared to rendering.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "card.toml",
//	    Formats: []string{"png", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenebox/pkg/cache"
	errs "github.com/matzehuels/scenebox/pkg/errors"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultScale is the raster output scale factor.
	DefaultScale = 1.0

	// MaxScale bounds the raster scale to keep outputs reasonable.
	MaxScale = 8.0

	// MaxCanvasSide bounds either side of a raster output, after scaling.
	MaxCanvasSide = 16384

	// MaxCanvasPixels bounds the pixel count of a raster output, after
	// scaling. At four bytes per pixel this is 256 MiB.
	MaxCanvasPixels = 1 << 26
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg" // relation graph drawn by Graphviz
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatJPEG: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ContentTypes maps output formats to MIME types.
var ContentTypes = map[string]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Load options. Either Path or Source is required; SceneFormat is
	// required with Source and inferred from Path otherwise.
	Path        string            `json:"-"`
	Source      []byte            `json:"-"`
	SceneFormat pkgio.Format      `json:"scene_format,omitempty"`
	Vars        map[string]string `json:"vars,omitempty"`
	BaseDir     string            `json:"-"` // image paths; defaults to the scene file's directory

	// Layout options
	Strict *bool `json:"strict,omitempty"` // overrides the scene's strict flag

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Quality  int      `json:"quality,omitempty"`  // JPEG only
	Detailed bool     `json:"detailed,omitempty"` // DOT/SVG labels

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the decoded scene file.
	Document *pkgio.Document

	// Scene is the built object tree.
	Scene *scene.Scene

	// SceneHash is the content hash used for cache keys.
	SceneHash string

	// Layout holds the solved placements.
	Layout *pkgio.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	Width      int
	Height     int
	Pruned     int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, jpeg, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeFormat maps aliases such as "jpg" to their canonical name.
func NormalizeFormat(format string) string {
	if format == "jpg" {
		return FormatJPEG
	}
	return format
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the scene source.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.Path == "" && len(o.Source) == 0:
		return errs.New(errs.ErrCodeInvalidInput, "scene path or source is required")
	case o.Path != "" && len(o.Source) > 0:
		return errs.New(errs.ErrCodeInvalidInput, "scene path and source are mutually exclusive")
	case len(o.Source) > 0 && o.SceneFormat == "":
		return errs.New(errs.ErrCodeInvalidInput, "scene format is required with source")
	}
	if o.Path != "" {
		if err := errs.ValidateSceneFilename(o.Path); err != nil {
			return err
		}
	}
	if o.SceneFormat != "" && o.SceneFormat != pkgio.FormatTOML && o.SceneFormat != pkgio.FormatHCL {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid scene format: %q (must be toml or hcl)", o.SceneFormat)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	for i, f := range o.Formats {
		o.Formats[i] = NormalizeFormat(f)
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 || o.Scale > MaxScale {
		return errs.New(errs.ErrCodeInvalidInput, "scale must be in (0, %g], got %g", MaxScale, o.Scale)
	}
	if o.Quality < 0 || o.Quality > 100 {
		return errs.New(errs.ErrCodeInvalidInput, "quality must be in [0, 100], got %d", o.Quality)
	}
	return nil
}

// CheckCanvas rejects raster outputs whose scaled size exceeds
// MaxCanvasSide or MaxCanvasPixels. Layouts only rendered to json, dot or
// svg are not limited.
func CheckCanvas(layout *pkgio.Layout, formats []string, scale float64) error {
	raster := false
	for _, f := range formats {
		if f == FormatPNG || f == FormatJPEG {
			raster = true
		}
	}
	if !raster || layout == nil {
		return nil
	}
	// Downscaled outputs are still drawn at full size first.
	if scale < 1 {
		scale = 1
	}
	w := float64(layout.Width) * scale
	h := float64(layout.Height) * scale
	if w > MaxCanvasSide || h > MaxCanvasSide || w*h > MaxCanvasPixels {
		return errs.New(errs.ErrCodeInvalidInput,
			"canvas %dx%d at scale %g exceeds the raster limit (max side %d, max %d pixels)",
			layout.Width, layout.Height, scale, MaxCanvasSide, MaxCanvasPixels)
	}
	return nil
}

// Source names the scene for logs and hooks.
func (o *Options) source() string {
	if o.Path != "" {
		return o.Path
	}
	return fmt.Sprintf("<%s source>", o.SceneFormat)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Strict: o.Strict}
}

// ArtifactKeyOpts returns cache key options for artifact rendering. Options
// that do not affect a format are left out so they do not split the cache.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Strict: o.Strict}
	switch format {
	case FormatPNG:
		k.Scale = o.Scale
	case FormatJPEG:
		k.Scale, k.Quality = o.Scale, o.Quality
	case FormatDOT, FormatSVG:
		k.Detailed = o.Detailed
	}
	return k
}
