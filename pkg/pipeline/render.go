package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	errs "github.com/matzehuels/scenebox/pkg/errors"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/render/composite"
	"github.com/matzehuels/scenebox/pkg/render/nodelink"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// RenderFormats produces the given formats. The scene image is rendered at
// most once and shared by the raster formats.
func RenderFormats(s *scene.Scene, layout *pkgio.Layout, formats []string, opts Options) (map[string][]byte, error) {
	if err := CheckCanvas(layout, formats, opts.Scale); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(formats))
	var dot string
	for _, format := range formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatPNG, FormatJPEG:
			data, err = renderRaster(s, format, opts)
		case FormatJSON:
			data, err = json.MarshalIndent(layout, "", "  ")
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = nodelink.ToDOT(s, nodelink.Options{Detailed: opts.Detailed})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(dot)
			}
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			if errs.GetCode(err) == "" {
				err = errs.Wrap(errs.ErrCodeRenderFailed, err, "render %s", format)
			}
			return nil, err
		}
		out[format] = data
	}
	return out, nil
}

func renderRaster(s *scene.Scene, format string, opts Options) ([]byte, error) {
	img, err := s.Render()
	if err != nil {
		return nil, errs.Wrap(errs.LayoutCode(err), err, "render scene")
	}
	f, err := composite.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := composite.Encode(&buf, composite.Scale(img, opts.Scale), f, opts.Quality); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
