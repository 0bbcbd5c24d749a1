package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctrtools/ncchdump"
)

var romfsOutput string

func init() {
	romfsCmd.Flags().StringVarP(&romfsOutput, "output", "o", "", "write the payload to a file instead of stdout")
	rootCmd.AddCommand(romfsCmd)
}

var romfsCmd = &cobra.Command{
	Use:   "romfs <file>",
	Short: "Extract the RomFS level-3 payload from a decrypted NCCH image",
	Long: "Extract the raw RomFS file data from an already-decrypted NCCH image,\n" +
		"such as a dumped shared system archive.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		payload, err := ncchdump.ExtractSharedRomFS(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to extract RomFS: %v\n", err)
			os.Exit(3)
		}

		if err := writeOutput(romfsOutput, payload); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	},
}
