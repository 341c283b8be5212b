package main

import (
	"github.com/spf13/cobra"

	"github.com/gekko3d/gatelab"
	"github.com/gekko3d/gatelab/host/glfwhost"
)

const viewHelp = `Keys:
  G        toggle gate
  Left     step parameter down
  Right    step parameter up
  B        toggle bloom
  L        toggle labels
  X        toggle x-ray
  R        reset view
  F        fullscreen
  Esc      quit`

func viewCmd() *cobra.Command {
	var (
		profile string
		model   string
		width   int
		height  int
		state   stateFlags
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open a model in a desktop window",
		Long:  "Open a model in a desktop window. Drag to orbit, scroll to zoom.\n\n" + viewHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(profile)
			if err != nil {
				return err
			}
			var attrs []string
			if p.DataHook != "" {
				attrs = append(attrs, p.DataHook)
			}
			h, err := glfwhost.New(glfwhost.Options{
				Width:          width,
				Height:         height,
				Title:          p.Title,
				ContainerID:    p.DefaultID,
				ContainerAttrs: attrs,
			})
			if err != nil {
				return err
			}

			v, err := gatelab.Create(h.Doc, h.Win, gatelab.Options{
				Profile:  p,
				ModelURL: model,
				Logger:   newLogger(),
			})
			if err != nil {
				h.Close()
				_ = h.Run(cmd.Context())
				return err
			}
			h.OnClose(v.Dispose)

			bindKeys(h, v)
			h.Bind(glfwhost.KeyEscape, h.Close)

			// Flags apply once the model is in.
			applied := false
			var onFrame func()
			onFrame = func() {
				if !applied && v.Loaded() {
					state.apply(v)
					applied = true
				}
				if !applied && v.LoadErr() == nil {
					h.Win.RequestFrame(onFrame)
				}
			}
			h.Win.RequestFrame(onFrame)
			return h.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "finfet", "Viewer profile")
	cmd.Flags().StringVar(&model, "model", "", "Model path or URL (defaults to the profile model)")
	cmd.Flags().IntVar(&width, "width", 1280, "Window width")
	cmd.Flags().IntVar(&height, "height", 720, "Window height")
	state.register(cmd)
	return cmd
}

func bindKeys(h *glfwhost.Host, v *gatelab.Viewer) {
	p := v.Profile()
	step := p.Parameter.Step
	if step <= 0 {
		step = (p.Parameter.Max - p.Parameter.Min) / 20
	}
	h.Bind(glfwhost.KeyG, func() { v.SetToggle(!v.GetState().Toggle) })
	h.Bind(glfwhost.KeyLeft, func() { v.SetParameter(v.GetState().Parameter - step) })
	h.Bind(glfwhost.KeyRight, func() { v.SetParameter(v.GetState().Parameter + step) })
	h.Bind(glfwhost.KeyB, func() {
		on, strength := v.Bloom()
		v.SetBloom(!on, strength)
	})
	h.Bind(glfwhost.KeyL, func() { v.SetEffect(gatelab.EffectLabels, !v.GetState().Effects[gatelab.EffectLabels]) })
	h.Bind(glfwhost.KeyX, func() { v.SetEffect(gatelab.EffectXray, !v.GetState().Effects[gatelab.EffectXray]) })
	h.Bind(glfwhost.KeyR, v.Reset)
	h.Bind(glfwhost.KeyF, v.ToggleFullscreen)
}
