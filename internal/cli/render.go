package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenebox/pkg/pipeline"
)

// sceneFlags are the flags shared by every command that loads a scene.
type sceneFlags struct {
	vars    []string
	strict  bool
	noCache bool
	refresh bool
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "set an HCL variable (name=value, repeatable)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "override the root container's strict mode")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results but store new ones")
}

// options fills the load and layout fields of a pipeline.Options.
func (f *sceneFlags) options(cmd *cobra.Command, input string) (pipeline.Options, error) {
	vars, err := parseVars(f.vars)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Path:    input,
		Vars:    vars,
		Strict:  strictFlag(cmd, f.strict),
		Refresh: f.refresh,
	}, nil
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		formats string
		flags   sceneFlags
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Solve a scene and render it",
		Long: `Solve a scene file and render it to one or more formats.

Formats:
  png, jpeg   the composited scene
  json        solved placements in absolute pixels
  dot, svg    the relation graph (Graphviz)

With several formats, -o is a base path and each format adds its extension.
Results are cached locally for faster subsequent runs.`,
		Example: `  scenebox render card.toml
  scenebox render card.hcl -f png,json --scale 2 --var accent=#ff8800
  scenebox render card.toml --strict -o out/card.png`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := flags.options(cmd, args[0])
			if err != nil {
				return err
			}
			base.Formats = parseFormats(formats, c.Config.Format)
			base.Scale = opts.Scale
			if !cmd.Flags().Changed("scale") {
				base.Scale = c.Config.Scale
			}
			base.Quality = opts.Quality
			base.Detailed = opts.Detailed
			return c.runRender(cmd.Context(), args[0], base, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): png, jpeg, json, dot, svg (comma-separated; default from config)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster scale factor")
	cmd.Flags().IntVar(&opts.Quality, "quality", 0, "JPEG quality 1-100 (0 uses the encoder default)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show kinds, sizes and symbolic positions in dot/svg")
	flags.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}
	if output == "-" && len(opts.Formats) != 1 {
		return fmt.Errorf("-o - needs exactly one format, got %d", len(opts.Formats))
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(input)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "-" {
		_, err := stdout.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths := outputPaths(output, input, opts.Formats)
	written := make([]string, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		if err := writeOutput(paths[f], result.Artifacts[f]); err != nil {
			return err
		}
		written = append(written, paths[f])
	}
	prog.done("render complete", "formats", strings.Join(opts.Formats, ","))

	printSuccess("Rendered %s", input)
	for _, p := range written {
		printFile(p)
	}
	printStats(result.Stats.NodeCount, result.Stats.Width, result.Stats.Height, result.Stats.Pruned,
		result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	if len(result.Layout.Pruned) > 0 {
		printWarning("Strict mode pruned: %s", strings.Join(result.Layout.Pruned, ", "))
	}
	return nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
