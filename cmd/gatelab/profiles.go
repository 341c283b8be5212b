package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gekko3d/gatelab"
)

func profilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the available viewer profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := gatelab.LoadProfileFile(configPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tTITLE\tPARAMETER\tRANGE\tMODEL")
			for _, key := range gatelab.ProfileKeys(profiles) {
				p := profiles[key]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g..%g\t%s\n",
					key, p.Title, p.Parameter.Label, p.Parameter.Min, p.Parameter.Max, p.ModelURL)
			}
			return tw.Flush()
		},
	}
}
