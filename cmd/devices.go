package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cpsim/core/devices"
)

var (
	genCount    int
	genTemplate string
	genOut      string
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Device directory commands",
}

var devicesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a device directory of numbered charge points",
	RunE: func(cmd *cobra.Command, args []string) error {
		if genCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}
		if err := devices.WriteFile(genOut, devices.Generate(genCount, genTemplate)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %d devices to %s\n", genCount, genOut)
		return err
	},
}

var devicesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the configured device directory in sweep order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		devs, err := devices.Load(cfg.Devices.Path)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTEMPLATE\tID\tNAME\tCREDENTIAL")
		for i, d := range devs {
			cred := "-"
			if d.Credential != "" {
				cred = "set"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, d.Template, d.Key(), d.Name, cred)
		}
		return tw.Flush()
	},
}

func init() {
	devicesGenerateCmd.Flags().IntVar(&genCount, "count", 160, "number of devices")
	devicesGenerateCmd.Flags().StringVar(&genTemplate, "template", "eletroposto_simulado", "template label and name prefix")
	devicesGenerateCmd.Flags().StringVar(&genOut, "out", "devices.json", "output file")
	devicesCmd.AddCommand(devicesGenerateCmd, devicesLsCmd)
	rootCmd.AddCommand(devicesCmd)
}
