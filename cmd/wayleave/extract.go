package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/internal/agreement"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Print the fields extracted from an agreement as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readAgreement(firstArg(args), cfg.Batch.MaxFileSize)
		if err != nil {
			return err
		}

		fields, err := agreement.Extract(doc.Text)
		if err != nil {
			var extractErr *agreement.ExtractionError
			if errors.As(err, &extractErr) {
				return fmt.Errorf("%s is %s: %s", extractErr.Field, extractErr.Reason, extractErr.Detail)
			}
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			agreement.AgreementFields
			Encoding string `json:"encoding"`
		}{fields, doc.Encoding.Encoding})
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Print whether an agreement is annual, fifteen-year or unknown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readAgreement(firstArg(args), cfg.Batch.MaxFileSize)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), agreement.Classify(doc.Text))
		return err
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(classifyCmd)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
