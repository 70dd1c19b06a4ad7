package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ashaboard/ashaboard/pkg/dataset"
)

func newValidateCmd() *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a dataset file for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), dataPath)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Dataset file (YAML or JSON, required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runValidate(w io.Writer, path string) error {
	ds, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("%s is invalid:\n%w", path, err)
	}
	fmt.Fprintf(w, "%s: ok (%d workers, %d cases, %d water sources)\n",
		path, len(ds.Workers), len(ds.Cases), len(ds.Sources))
	return nil
}
