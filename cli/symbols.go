package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/luahook"
	"github.com/sliverarmory/luahook/dynsym"
)

// companionSymbols lists every entry point the shim resolves.
var companionSymbols = []string{
	luahook.SymDoFile,
	luahook.SymDoString,
	luahook.SymGetGlobal,
	luahook.SymGetString,
	luahook.SymIsFunction,
	luahook.SymIsTable,
	luahook.SymIsString,
	luahook.SymIsNil,
	luahook.SymStrLibOpen,
	luahook.SymIOLibOpen,
	luahook.SymPushCClosure,
	luahook.SymSetGlobal,
	luahook.SymParam,
	luahook.SymPushNumber,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <shared library>",
	Short: "Report which interpreter entry points a shared library exports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exports, err := dynsym.FindExports(args[0], companionSymbols)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		missing := 0
		for _, name := range companionSymbols {
			if exp, ok := exports[name]; ok {
				fmt.Fprintf(out, "%-18s 0x%x\n", name, exp.Offset)
				continue
			}
			missing++
			fmt.Fprintf(out, "%-18s missing\n", name)
		}
		if _, ok := exports[luahook.SymDoFile]; !ok {
			return fmt.Errorf("%s does not export %s", args[0], luahook.SymDoFile)
		}
		if missing > 0 {
			fmt.Fprintf(out, "%d companion entry points missing; dependent features will be disabled\n", missing)
		}
		return nil
	},
}
