package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/diewo77/go-orders/internal/logger"
	"github.com/diewo77/go-orders/internal/money"
	"github.com/diewo77/go-orders/internal/services"
	"github.com/spf13/cobra"
)

func orderIDArg(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not an order id", s)
	}
	return uint(id), nil
}

var payloadCmd = &cobra.Command{
	Use:   "payload <order-id>",
	Short: "Print the QR-bill payload of an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := orderIDArg(args[0])
		if err != nil {
			return err
		}
		conn, err := openDB()
		if err != nil {
			return err
		}
		invoices := services.NewInvoiceService(services.NewOrderService(conn), nil)
		inv, err := invoices.Build(cmd.Context(), id)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), inv.Payload.String())
		return err
	},
}

var invoiceCmd = &cobra.Command{
	Use:   "invoice <order-id>",
	Short: "Write the PDF invoice of an order, or mail it with --send",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("invoice")
		id, err := orderIDArg(args[0])
		if err != nil {
			return err
		}
		conn, err := openDB()
		if err != nil {
			return err
		}
		invoices := services.NewInvoiceService(services.NewOrderService(conn), newMailer())

		if send, _ := cmd.Flags().GetBool("send"); send {
			if err := invoices.Send(cmd.Context(), id); err != nil {
				return err
			}
			log.Info().Uint("order_id", id).Msg("invoice sent")
			return nil
		}

		doc, inv, err := invoices.PDF(cmd.Context(), id)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = "invoice-" + inv.Number + ".pdf"
		}
		if err := os.WriteFile(out, doc, 0o644); err != nil {
			return err
		}
		log.Info().Str("file", out).Str("total", money.Format(inv.Totals.Total)).Msg("invoice written")
		return nil
	},
}

func init() {
	invoiceCmd.Flags().String("out", "", "Output file (default invoice-<number>.pdf)")
	invoiceCmd.Flags().Bool("send", false, "Mail the invoice to the billing address")
	rootCmd.AddCommand(payloadCmd, invoiceCmd)
}
