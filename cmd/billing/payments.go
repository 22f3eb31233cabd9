package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/diewo77/go-orders/i18n"
	"github.com/diewo77/go-orders/internal/logger"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/diewo77/go-orders/internal/services"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import-camt <file>",
	Short: "Match the credit entries of a camt.053 statement against open orders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		conn, err := openDB()
		if err != nil {
			return err
		}
		imports := services.NewPaymentImportService(conn, logger.WithComponent("payments"))
		batch, err := imports.Import(cmd.Context(), f, filepath.Base(args[0]))
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "batch %s\n", batch.BatchID)
		fmt.Fprintln(tw, "REFERENCE\tAMOUNT\tORDER\tRESULT")
		for _, e := range batch.Entries {
			order := "-"
			if e.OrderID != nil {
				order = fmt.Sprint(*e.OrderID)
			}
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", e.Reference, money.Format(e.Amount), e.Currency, order, e.Result)
		}
		return tw.Flush()
	},
}

var vatCmd = &cobra.Command{
	Use:   "vat-report",
	Short: "Export the VAT collected on orders paid in a period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := dateFlag(cmd, "from")
		if err != nil {
			return err
		}
		to, err := dateFlag(cmd, "to")
		if err != nil {
			return err
		}
		if from.IsZero() || to.IsZero() {
			return errors.New("--from and --to are required")
		}
		lang, _ := cmd.Flags().GetString("lang")
		out, _ := cmd.Flags().GetString("out")

		conn, err := openDB()
		if err != nil {
			return err
		}
		reports := services.NewReportService(services.NewOrderService(conn))
		report, err := reports.VAT(cmd.Context(), from, to.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		if out == "" {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RATE\tAMOUNT\tVAT\tORDERS")
			for _, r := range report.Rows {
				fmt.Fprintf(tw, "%s%%\t%s\t%s\t%d\n", r.Rate.String(), money.Format(r.Amount), money.Format(r.VAT), r.Orders)
			}
			fmt.Fprintf(tw, "\t\t%s\t\n", money.Format(report.VAT))
			return tw.Flush()
		}

		data, err := services.WriteVATWorkbook(report, i18n.Normalize(lang))
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		logger.WithComponent("report").Info().Str("file", out).Msg("VAT report written")
		return nil
	},
}

func init() {
	vatCmd.Flags().String("from", "", "First day of the period (YYYY-MM-DD)")
	vatCmd.Flags().String("to", "", "Last day of the period, inclusive (YYYY-MM-DD)")
	vatCmd.Flags().String("lang", "de", "Workbook language")
	vatCmd.Flags().String("out", "", "Write an xlsx workbook instead of a table")
	rootCmd.AddCommand(importCmd, vatCmd)
}
