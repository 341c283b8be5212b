// Command gatelab renders and views the transistor models headlessly or in
// a desktop window.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gekko3d/gatelab"
)

var (
	configPath string
	debug      bool
)

func main() {
	root := &cobra.Command{
		Use:           "gatelab",
		Short:         "Interactive transistor model viewer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML file with extra or overriding profiles")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug messages")

	root.AddCommand(snapshotCmd(), viewCmd(), profilesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gatelab:", err)
		os.Exit(1)
	}
}

// loadProfile resolves key against the built-ins and the --config file.
func loadProfile(key string) (*gatelab.Profile, error) {
	profiles, err := gatelab.LoadProfileFile(configPath)
	if err != nil {
		return nil, err
	}
	p, ok := profiles[key]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (have %v)", key, gatelab.ProfileKeys(profiles))
	}
	return p, nil
}

// stateFlags are the view state settings shared by snapshot and view.
type stateFlags struct {
	param  float64
	toggle bool
	labels bool
	xray   bool
	bloom  float64
	set    func(name string) bool
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.param, "param", 0, "Parameter value (defaults to the profile default)")
	cmd.Flags().BoolVar(&f.toggle, "toggle", true, "Primary toggle (gate on)")
	cmd.Flags().BoolVar(&f.labels, "labels", true, "Show labels when the profile has them")
	cmd.Flags().BoolVar(&f.xray, "xray", false, "X-ray the substrate when the profile supports it")
	cmd.Flags().Float64Var(&f.bloom, "bloom", -1, "Bloom strength 0..2; 0 disables, negative keeps the profile default")
	f.set = func(name string) bool { return cmd.Flags().Changed(name) }
}

func (f *stateFlags) apply(v *gatelab.Viewer) {
	if f.set("param") {
		v.SetParameter(f.param)
	}
	if f.set("toggle") {
		v.SetToggle(f.toggle)
	}
	if f.set("labels") {
		v.SetEffect(gatelab.EffectLabels, f.labels)
	}
	if f.set("xray") {
		v.SetEffect(gatelab.EffectXray, f.xray)
	}
	if f.bloom >= 0 {
		v.SetBloom(f.bloom > 0, f.bloom)
	}
}

func newLogger() gatelab.Logger {
	return gatelab.NewDefaultLogger("", debug)
}
