package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctrtools/ncchdump"
)

var exefsOutput string

func init() {
	exefsCmd.Flags().AddFlagSet(&commonFlags)
	exefsCmd.Flags().StringVarP(&exefsOutput, "output", "o", "", "write the section to a file instead of stdout")
	rootCmd.AddCommand(exefsCmd)
}

var exefsCmd = &cobra.Command{
	Use:   "exefs <file> <section>",
	Short: "Extract one named ExeFS section (e.g. .code, icon, banner)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		keys, err := loadKeys()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		container := ncchdump.NewContainer(fileSource(args[0]), keys)
		defer container.Close()

		data, err := container.ExeFSSection(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to extract section: %v\n", err)
			os.Exit(3)
		}

		if err := writeOutput(exefsOutput, data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	},
}
