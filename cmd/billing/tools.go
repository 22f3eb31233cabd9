package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/diewo77/go-orders/internal/conditions"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/diewo77/go-orders/internal/qrbill"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var referenceCmd = &cobra.Command{
	Use:   "reference <order-id | reference>",
	Short: "Generate or check a QR reference",
	Long: `With an order id (up to 22 digits) prints its 27 digit QR reference.
With --check the argument is a reference whose check digit is verified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if check, _ := cmd.Flags().GetBool("check"); check {
			digits := qrbill.StripSpaces(args[0])
			if !qrbill.ValidReference(digits) {
				return fmt.Errorf("%s: invalid QR reference", args[0])
			}
			fmt.Fprintln(out, qrbill.FormatReference(digits))
			return nil
		}
		ref, err := qrbill.ReferenceFromDigits(args[0])
		if err != nil {
			return err
		}
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			ref = qrbill.StripSpaces(ref)
		}
		fmt.Fprintln(out, ref)
		return nil
	},
}

var conditionsCmd = &cobra.Command{
	Use:   "conditions <conditions>",
	Short: `Expand payment conditions such as "2:10;0:30"`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		if date.IsZero() {
			return errors.New("--date is required")
		}
		raw, _ := cmd.Flags().GetString("total")
		total, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("--total: %w", err)
		}
		list, err := conditions.Parse(args[0], date, total)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DAYS\tDATE\tDISCOUNT\tPRICE")
		for _, c := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s%%\t%s\n", c.Days, c.Date.Format(dateLayout), c.Percent.String(), money.Format(c.Price))
		}
		return tw.Flush()
	},
}

var ibanCmd = &cobra.Command{
	Use:   "iban <iban>",
	Short: "Validate an IBAN and tell whether it is a QR-IBAN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !qrbill.ValidIBAN(args[0]) {
			return fmt.Errorf("%s: invalid IBAN", args[0])
		}
		kind := "IBAN"
		if qrbill.IsQRIBAN(args[0]) {
			kind = "QR-IBAN"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", qrbill.StripSpaces(args[0]), kind)
		return nil
	},
}

func init() {
	referenceCmd.Flags().Bool("check", false, "Verify the check digit of a reference")
	referenceCmd.Flags().Bool("plain", false, "Print the 27 digits without blocks")
	conditionsCmd.Flags().String("date", "", "Invoice date (YYYY-MM-DD)")
	conditionsCmd.Flags().String("total", "0", "Invoice total")
	rootCmd.AddCommand(referenceCmd, conditionsCmd, ibanCmd)
}
