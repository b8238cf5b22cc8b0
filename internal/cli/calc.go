package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"profitlens/internal/domain/invoicing"
	"profitlens/internal/domain/payroll"
	"profitlens/internal/platform/money"
)

func newCalcCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute invoice or payroll figures offline from a JSON file",
	}
	cmd.AddCommand(newCalcInvoiceCommand(), newCalcPayrollCommand())
	return cmd
}

func newCalcInvoiceCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Print the totals of an invoice draft",
		Example: `  profitlens calc invoice --file draft.json
  cat draft.json | profitlens calc invoice --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var draft invoicing.Draft
			if err := readJSON(cmd, file, &draft); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), draft.Invoice().Totals)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "draft JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// payrollInput is the calc payroll file: the company settings plus one record.
type payrollInput struct {
	Settings payroll.SettingsDraft `json:"settings"`
	Record   payroll.RecordDraft   `json:"record"`
}

func newCalcPayrollCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "payroll",
		Short:   "Print the payroll breakdown of one record under the given settings",
		Example: `  profitlens calc payroll --file record.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in payrollInput
			if err := readJSON(cmd, file, &in); err != nil {
				return err
			}
			settings := payroll.Settings{
				PFPercentage:  money.NonNegative(in.Settings.PFPercentage.Coerced()),
				ESIPercentage: money.NonNegative(in.Settings.ESIPercentage.Coerced()),
				CustomFields:  in.Settings.CustomFields,
			}
			return writeJSON(cmd.OutOrStdout(), payroll.Compute(in.Record.Input(settings), settings))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "input JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readJSON(cmd *cobra.Command, file string, dst any) error {
	var r io.Reader
	if file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
