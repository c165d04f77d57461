package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scenebox/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		asJSON bool
		flags  sceneFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [scene]",
		Short: "Solve a scene and print the placement of every node",
		Long: `Solve a scene file and print the placement of every node.

Coordinates are absolute pixels in the rendered image. Nodes dropped by a
strict container are listed as pruned. Use -o to also write the placements
as JSON (the same document as 'render -f json').`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSceneFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), opts, output, asJSON, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write placements JSON to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print placements JSON instead of a table")
	flags.register(cmd)

	return cmd
}

// runLayout loads the scene and solves it without rendering.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, asJSON, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	loaded, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	layout, cacheHit, err := runner.LayoutWithCacheInfo(ctx, loaded.Scene, loaded.SceneHash, opts)
	if err != nil {
		return err
	}

	var data []byte
	if asJSON || output != "" {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(layout); err != nil {
			return fmt.Errorf("encode layout: %w", err)
		}
		data = buf.Bytes()
	}
	if asJSON {
		_, err := stdout.Write(data)
		return err
	}

	title := layout.Name
	if title == "" {
		title = opts.Path
	}
	fmt.Fprintln(stdout, StyleTitle.Render(title))
	fmt.Fprintln(stdout, layoutTable(layout))
	printStats(loaded.Stats.NodeCount, layout.Width, layout.Height, len(layout.Pruned), cacheHit)

	if output != "" {
		if err := writeOutput(output, data); err != nil {
			return err
		}
		printFile(output)
	}
	printNewline()
	printNextStep("Render", "scenebox render "+opts.Path)
	return nil
}
