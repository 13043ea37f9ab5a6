package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/luahook"
	"github.com/sliverarmory/luahook/dynsym"
)

var (
	providersPID int
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List mapped objects of a process that define lua_dofile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := dynsym.Providers(providersPID, luahook.SymDoFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(providers) == 0 {
			fmt.Fprintf(out, "no mapped object defines %s\n", luahook.SymDoFile)
			return nil
		}
		for i, p := range providers {
			fmt.Fprintf(out, "%d. %s base=0x%x offset=0x%x\n", i+1, p.Path, p.Base, p.Offset)
		}
		if len(providers) == 1 {
			fmt.Fprintf(out, "%s is not interposed\n", luahook.SymDoFile)
		}
		return nil
	},
}

func init() {
	providersCmd.Flags().IntVar(&providersPID, "pid", 0, "Process to inspect (default: this process)")
}
