package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenebox/pkg/pipeline"
	"github.com/matzehuels/scenebox/pkg/render/nodelink"
)

// graphCommand creates the graph command, which draws the relation graph of
// every relative container instead of the scene itself.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		scale    float64
		vars     []string
	)

	cmd := &cobra.Command{
		Use:   "graph [scene]",
		Short: "Draw the relation graph of a scene",
		Long: `Draw the relation graph of a scene with Graphviz.

Each relative container becomes a cluster; an edge "a -> b [below]" means b is
placed below a. prior_to edges are dashed, flex and stack membership dotted.
With --detailed, node labels carry the symbolic position of each child in
terms of the container's x, y, w and h.

DOT is printed to stdout unless -o is given.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVars(vars)
			if err != nil {
				return err
			}
			opts := pipeline.Options{Path: args[0], Vars: v}
			return c.runGraph(cmd.Context(), opts, format, output, detailed, scale)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot, svg, png")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with kind, size and symbolic position")
	cmd.Flags().Float64Var(&scale, "scale", 2, "PNG scale factor")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "set an HCL variable (name=value, repeatable)")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, opts pipeline.Options, format, output string, detailed bool, scale float64) error {
	if err := opts.ValidateForLoad(); err != nil {
		return err
	}
	logger := loggerFromContext(ctx)

	_, s, err := pipeline.Load(opts)
	if err != nil {
		return err
	}
	dot := nodelink.ToDOT(s, nodelink.Options{Detailed: detailed})
	logger.Debug("built relation graph", "bytes", len(dot))

	var data []byte
	switch format {
	case pipeline.FormatDOT:
		data = []byte(dot)
	case pipeline.FormatSVG:
		data, err = nodelink.RenderSVG(dot)
	case pipeline.FormatPNG:
		data, err = nodelink.RenderPNG(dot, scale)
	default:
		return fmt.Errorf("invalid graph format: %q (must be dot, svg or png)", format)
	}
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}

	if output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}
	printSuccess("Relation graph written")
	printFile(output)
	return nil
}
