package main

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"github.com/gekko3d/gatelab"
	"github.com/gekko3d/gatelab/host/memhost"
)

func snapshotCmd() *cobra.Command {
	var (
		profile string
		model   string
		size    string
		ratio   float64
		out     string
		timeout time.Duration
		state   stateFlags
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render one frame headlessly and write it as PNG",
		Example: `  gatelab snapshot --profile finfet --model models/FinFET.glb --param 4 --toggle=false --size 960x540 --out fin.png
  gatelab snapshot --profile planar --param 0.9 --xray --out planar.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w, h int
			if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
				return fmt.Errorf("bad --size %q, want WIDTHxHEIGHT", size)
			}
			p, err := loadProfile(profile)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			frame, err := snapshot(ctx, p, model, w, h, ratio, &state)
			if err != nil {
				return err
			}
			if err := imgio.Save(out, frame, imgio.PNGEncoder()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", out, frame.Bounds().Dx(), frame.Bounds().Dy())
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "finfet", "Viewer profile")
	cmd.Flags().StringVar(&model, "model", "", "Model path or URL (defaults to the profile model)")
	cmd.Flags().StringVar(&size, "size", "960x540", "Output size in CSS pixels")
	cmd.Flags().Float64Var(&ratio, "pixel-ratio", 1, "Device pixel ratio (capped at 2)")
	cmd.Flags().StringVar(&out, "out", "snapshot.png", "Output PNG path")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Model load timeout")
	state.register(cmd)
	return cmd
}

// snapshot mounts a viewer on an in-memory page, waits for its model and
// renders the requested state once.
func snapshot(ctx context.Context, p *gatelab.Profile, model string, w, h int, ratio float64, state *stateFlags) (*image.RGBA, error) {
	doc := memhost.NewDocument()
	win := memhost.NewWindow()
	win.PixelRatio = ratio
	var attrs []string
	if p.DataHook != "" {
		attrs = append(attrs, p.DataHook)
	}
	doc.NewContainer(p.DefaultID, w, h, attrs...)

	v, err := gatelab.Create(doc, win, gatelab.Options{
		Profile:  p,
		ModelURL: model,
		Logger:   newLogger(),
		Registry: gatelab.NewRegistry(),
	})
	if err != nil {
		return nil, err
	}
	defer v.Dispose()

	if err := win.WaitPosted(ctx); err != nil {
		return nil, fmt.Errorf("waiting for model: %w", err)
	}
	if err := v.LoadErr(); err != nil {
		return nil, err
	}
	state.apply(v)
	if err := v.RenderFrame(); err != nil {
		return nil, err
	}
	return v.LastFrame(), nil
}
