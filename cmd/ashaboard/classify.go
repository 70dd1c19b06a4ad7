package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashaboard/ashaboard/pkg/water"
)

func newClassifyCmd() *cobra.Command {
	var (
		reading   water.Reading
		condition string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a water-quality reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := water.ParseCondition(condition)
			if err != nil {
				return fmt.Errorf("invalid reading: %w", err)
			}
			reading.Condition = c
			reading.TakenAt = time.Now().UTC()
			return runClassify(cmd.OutOrStdout(), reading, outputFmt)
		},
	}

	cmd.Flags().Float64Var(&reading.Turbidity, "turbidity", 0, "Turbidity in NTU (required)")
	cmd.Flags().Float64Var(&reading.PH, "ph", 0, "pH value (required)")
	cmd.Flags().Float64Var(&reading.Temperature, "temperature", 25, "Water temperature in degrees Celsius")
	cmd.Flags().StringVar(&condition, "condition", "", "Visual condition: clean, muddy or stagnant")
	cmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("turbidity")
	_ = cmd.MarkFlagRequired("ph")

	return cmd
}

func runClassify(w io.Writer, r water.Reading, outputFmt string) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}
	a := water.Classify(r)

	switch outputFmt {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"reading":      r,
			"assessment":   a,
			"sourceStatus": a.SourceStatus(),
		})
	case "text", "":
		fmt.Fprintf(w, "Overall:       %s\n", a.Overall)
		fmt.Fprintf(w, "Turbidity:     %s (%.1f NTU)\n", a.Turbidity, r.Turbidity)
		fmt.Fprintf(w, "pH:            %s (%.1f)\n", a.PH, r.PH)
		fmt.Fprintf(w, "Temperature:   %s (%.1f °C)\n", a.Temperature, r.Temperature)
		fmt.Fprintf(w, "Source status: %s\n", a.SourceStatus())
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", outputFmt)
	}
}
