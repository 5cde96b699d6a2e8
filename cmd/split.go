package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pb-ai/sharder/envconfig"
	"github.com/pb-ai/sharder/format"
	"github.com/pb-ai/sharder/progress"
	"github.com/pb-ai/sharder/split"
)

func NewSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a safetensors model into chunk files and a manifest",
		Args:  cobra.NoArgs,
		RunE:  SplitHandler,
	}

	cmd.Flags().String("input", "", "Directory containing the source .safetensors files")
	cmd.Flags().String("output", "", "Output directory for chunk files and manifest.json")
	cmd.Flags().String("model-id", "", "Model identifier recorded in the manifest, e.g. \"Qwen/Qwen2.5-3B\"")
	cmd.Flags().Uint32("layers-per-chunk", 4, "Number of transformer layers per chunk")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("model-id")

	return cmd
}

func SplitHandler(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	modelID, _ := cmd.Flags().GetString("model-id")
	layersPerChunk, _ := cmd.Flags().GetUint32("layers-per-chunk")

	opts := split.Options{
		InputDir:       input,
		OutputDir:      output,
		ModelID:        modelID,
		LayersPerChunk: layersPerChunk,
	}

	var p *progress.Progress
	if !envconfig.Debug {
		p = progress.NewProgress(os.Stderr)
		defer p.StopAndClear()

		// spin while the sources are mapped and classified, then switch to a
		// bar once the chunk count is known
		spinner := progress.NewSpinner("scanning model")
		p.Set(spinner)

		var bar *progress.Bar
		opts.Progress = func(completed, total int) {
			if bar == nil {
				spinner.Stop()
				bar = progress.NewBar("writing chunks", "chunks", int64(total))
				p.Set(bar)
			}
			bar.Set(int64(completed))
		}
	}

	summary, err := split.Run(opts)
	if err != nil {
		return err
	}

	if p != nil {
		p.StopAndClear()
	}

	var data [][]string
	for i, c := range summary.Manifest.Chunks {
		layers := "-"
		if c.ID != "base" {
			layers = fmt.Sprintf("%d-%d", c.LayerStart, c.LayerEnd)
		}

		data = append(data, []string{
			c.ID,
			layers,
			fmt.Sprintf("%d", summary.Metrics.Chunks[i].TensorCount),
			format.HumanBytes(int64(c.Bytes)),
			c.Digest[:12],
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "LAYERS", "TENSORS", "SIZE", "DIGEST"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Printf("\nwrote %d chunks (%s) and %s\n",
		len(summary.Manifest.Chunks),
		format.HumanBytes(int64(summary.Manifest.TotalBytes())),
		summary.ManifestPath)

	if summary.ReportPath != "" {
		fmt.Printf("performance report: %s\n", summary.ReportPath)
	}

	return nil
}
