package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctrtools/ncchdump"
	"github.com/ctrtools/ncchdump/keydb"
)

var infoIcon bool

func init() {
	infoCmd.Flags().AddFlagSet(&commonFlags)
	infoCmd.Flags().BoolVar(&infoIcon, "icon", false, "include SMDH data from the ExeFS icon section")
	rootCmd.AddCommand(infoCmd)
}

type containerInfo struct {
	File        string
	ProgramID   ncchdump.Hex64
	PartitionID ncchdump.Hex64
	Version     ncchdump.Hex16
	Encrypted   bool
	ExHeader    *ncchdump.ExHeader          `json:",omitempty"`
	ExtdataID   *ncchdump.Hex64             `json:",omitempty"`
	ExeFS       []ncchdump.ExeFSSectionInfo `json:",omitempty"`
	SMDH        *ncchdump.SMDH              `json:",omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info [file...]",
	Short: "Print NCCH metadata as JSON",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		keys, err := loadKeys()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		encoder := newEncoder()
		for _, filename := range args {
			info, err := describe(filename, keys)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid NCCH: %v\n", err)
				os.Exit(3)
			}
			encoder.Encode(info)
		}
	},
}

func describe(filename string, keys *keydb.DB) (*containerInfo, error) {
	container := ncchdump.NewContainer(fileSource(filename), keys)
	defer container.Close()

	programID, err := container.ProgramID()
	if err != nil {
		return nil, err
	}
	partitionID, err := container.PartitionID()
	if err != nil {
		return nil, err
	}
	version, err := container.Version()
	if err != nil {
		return nil, err
	}

	info := &containerInfo{
		File:        filename,
		ProgramID:   ncchdump.Hex64(programID),
		PartitionID: ncchdump.Hex64(partitionID),
		Version:     ncchdump.Hex16(version),
		Encrypted:   container.Encrypted(),
	}

	exheader, err := container.ExHeader()
	switch {
	case err == nil:
		info.ExHeader = exheader

		extdataID, err := container.ExtdataID()
		if err == nil {
			id := ncchdump.Hex64(extdataID)
			info.ExtdataID = &id
		} else if !errors.Is(err, ncchdump.ErrNotPresent) {
			return nil, err
		}
	case !errors.Is(err, ncchdump.ErrNotPresent):
		return nil, err
	}

	sections, err := container.ExeFSSections()
	switch {
	case err == nil:
		info.ExeFS = sections
	case !errors.Is(err, ncchdump.ErrNotPresent):
		return nil, err
	}

	if infoIcon && info.ExeFS != nil {
		icon, err := container.ExeFSSection("icon")
		switch {
		case err == nil:
			smdh, err := ncchdump.ParseSMDH(icon)
			if err != nil {
				return nil, err
			}
			info.SMDH = smdh
		case !errors.Is(err, ncchdump.ErrNotPresent):
			return nil, err
		}
	}

	return info, nil
}
