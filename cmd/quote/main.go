// Command quote runs a one-off financing estimate against a catalog file and
// prints the ranked offers, without starting the HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vehicle-financing/backend/internal/pricing"
	"vehicle-financing/backend/internal/rules"
)

type quoteFlags struct {
	catalogPath string
	state       string
	score       int
	price       float64
	down        float64
	tradeIn     float64
	fees        float64
	term        int
	year        int
	miles       int
	product     string
	asJSON      bool
}

func main() {
	flags := quoteFlags{}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimate vehicle financing offers from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, flags)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "path to a lender catalog JSON file (bundled default when empty)")
	cmd.Flags().StringVar(&flags.state, "state", pricing.DefaultState, "buyer state code")
	cmd.Flags().IntVar(&flags.score, "score", pricing.DefaultScore, "credit score")
	cmd.Flags().Float64Var(&flags.price, "price", pricing.DefaultVehiclePrice, "vehicle price")
	cmd.Flags().Float64Var(&flags.down, "down", pricing.DefaultDownPayment, "down payment")
	cmd.Flags().Float64Var(&flags.tradeIn, "trade-in", pricing.DefaultTradeInValue, "trade-in value")
	cmd.Flags().Float64Var(&flags.fees, "fees", pricing.DefaultEstTaxesAndFees, "estimated taxes and fees")
	cmd.Flags().IntVar(&flags.term, "term", pricing.DefaultTerm, "term in months")
	cmd.Flags().IntVar(&flags.year, "year", pricing.DefaultVehicleYear, "vehicle model year")
	cmd.Flags().IntVar(&flags.miles, "miles", pricing.DefaultMileage, "vehicle mileage")
	cmd.Flags().StringVar(&flags.product, "product", pricing.DefaultProduct, "financing product id")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "emit the full result as JSON")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runQuote(cmd *cobra.Command, flags quoteFlags) error {
	catalog, err := rules.Resolve(flags.catalogPath)
	if err != nil {
		return err
	}
	engine, err := pricing.NewEngine(catalog)
	if err != nil {
		return err
	}

	result, err := engine.Estimate(pricing.EstimateRequest{
		State:           &flags.state,
		Score:           &flags.score,
		VehiclePrice:    &flags.price,
		DownPayment:     &flags.down,
		TradeInValue:    &flags.tradeIn,
		EstTaxesAndFees: &flags.fees,
		Term:            &flags.term,
		VehicleYear:     &flags.year,
		Mileage:         &flags.miles,
		Product:         &flags.product,
	})
	if err != nil {
		return err
	}

	if flags.asJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Band %s | loan $%.2f over %d months (LTV %.2f)\n\n",
		result.Band.ID, result.Inputs.LoanAmount, result.Inputs.Term, result.Inputs.LTV)
	if len(result.Results) == 0 {
		fmt.Fprintln(out, "No eligible lenders for this request.")
		return nil
	}
	for i, offer := range result.Results {
		fmt.Fprintf(out, "%d. %-28s %6.3f%% - %6.3f%%   $%.2f - $%.2f /mo\n",
			i+1, offer.LenderName, offer.APRLow*100, offer.APRHigh*100, offer.PaymentLow, offer.PaymentHigh)
		for _, note := range offer.Notes {
			fmt.Fprintf(out, "   - %s\n", note)
		}
	}
	return nil
}
