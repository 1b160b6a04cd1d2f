package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/infra/tunables"
	"github.com/yanqian/solarinfra/pkg/logger"
)

const serviceKey = "estimator"

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "solarcalc",
		Usage:     "Size a rooftop solar plant and project its payback",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tunables",
				Usage:   "YAML file overriding the regional estimator constants",
				EnvVars: []string{"ESTIMATOR_TUNABLES_FILE"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			switch c.String("format") {
			case "table", "json":
			default:
				return fmt.Errorf("unknown format %q", c.String("format"))
			}
			log := logger.NewText(c.String("log-level"))
			src, err := tunables.NewSource(c.String("tunables"), estimator.DefaultConfig(), log)
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]interface{}{}
			}
			c.App.Metadata[serviceKey] = estimator.NewService(src, log)
			return nil
		},
		Commands: []*cli.Command{
			sizeCommand(),
			quickCommand(),
			projectCommand(),
			emiCommand(),
		},
	}
}

func sizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "size",
		Usage: "Recommend a plant from a declared appliance load",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "appliance",
				Aliases:  []string{"a"},
				Usage:    "Appliance as name:watts:quantity:hoursPerDay (repeatable)",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "monthly-units",
				Usage: "Billed kWh per month, used as a cross-check",
			},
			&cli.IntFlag{
				Name:  "panel",
				Usage: "Panel wattage; defaults to the configured panel",
			},
		},
		Action: func(c *cli.Context) error {
			req := estimator.SizeRequest{PanelWattage: c.Int("panel")}
			for _, raw := range c.StringSlice("appliance") {
				row, err := parseAppliance(raw)
				if err != nil {
					return err
				}
				req.Appliances = append(req.Appliances, row)
			}
			if c.IsSet("monthly-units") {
				units := c.Float64("monthly-units")
				req.MonthlyUnitsKWh = &units
			}
			resp, err := service(c).Size(context.Background(), req)
			if err != nil {
				return err
			}
			rec := resp.Recommendation
			return render(c, resp, [][2]string{
				{"Daily load (kWh)", formatFloat(resp.Load.DailyEnergyKWh)},
				{"Target (kWh/day)", formatFloat(resp.TargetDailyKWh)},
				{"Required plant (kW)", formatFloat(rec.RequiredPlantKW)},
				{"Recommended plant (kW)", strconv.Itoa(rec.RecommendedPlantKW)},
				{"Panels", fmt.Sprintf("%d x %dW", rec.PanelCount, rec.PanelWattage)},
				{"Roof area (sq ft)", formatFloat(rec.RoofAreaSqFt)},
				{"Inverter", string(rec.InverterClass)},
			})
		},
	}
}

func quickCommand() *cli.Command {
	return &cli.Command{
		Name:  "quick",
		Usage: "Estimate annual savings and carbon offset from a monthly bill",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "bill", Usage: "Monthly electricity bill", Required: true},
		},
		Action: func(c *cli.Context) error {
			est, err := service(c).QuickEstimate(context.Background(), c.Float64("bill"))
			if err != nil {
				return err
			}
			return render(c, est, [][2]string{
				{"Monthly bill", formatFloat(est.MonthlyBill)},
				{"Annual savings", formatFloat(est.AnnualSavings)},
				{"Carbon offset (kg/yr)", formatFloat(est.CarbonOffsetKgPerYear)},
			})
		},
	}
}

func projectCommand() *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Project payback for a specific system",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "bill", Usage: "Monthly electricity bill", Required: true},
			&cli.Float64Flag{Name: "price", Usage: "System price", Required: true},
			&cli.Float64Flag{Name: "savings", Usage: "Maximum monthly savings of the system", Required: true},
		},
		Action: func(c *cli.Context) error {
			proj, err := service(c).ProjectProduct(context.Background(), estimator.ProjectionRequest{
				MonthlyBill:       c.Float64("bill"),
				ProductPrice:      c.Float64("price"),
				ProductMaxSavings: c.Float64("savings"),
			})
			if err != nil {
				return err
			}
			return render(c, proj, [][2]string{
				{"Monthly savings", formatFloat(proj.MonthlySavings)},
				{"Payback (years)", formatFloat(proj.PaybackYears)},
				{fmt.Sprintf("Savings over %d years", proj.LifetimeYears), formatFloat(proj.LifetimeSavings)},
			})
		},
	}
}

func emiCommand() *cli.Command {
	return &cli.Command{
		Name:  "emi",
		Usage: "Compute an equated monthly installment",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "principal", Required: true},
			&cli.Float64Flag{Name: "rate", Usage: "Annual interest rate in percent"},
			&cli.IntFlag{Name: "months", Required: true},
		},
		Action: func(c *cli.Context) error {
			inst, err := service(c).Installment(context.Background(), estimator.InstallmentRequest{
				Principal:     c.Float64("principal"),
				AnnualRatePct: c.Float64("rate"),
				Months:        c.Int("months"),
			})
			if err != nil {
				return err
			}
			return render(c, inst, [][2]string{
				{"Monthly payment", formatFloat(inst.MonthlyPayment)},
				{"Total payable", formatFloat(inst.TotalPayable)},
				{"Total interest", formatFloat(inst.TotalInterest)},
			})
		},
	}
}

func service(c *cli.Context) estimator.Service {
	return c.App.Metadata[serviceKey].(estimator.Service)
}

// parseAppliance reads name:watts:quantity:hoursPerDay. The name may itself contain colons.
func parseAppliance(raw string) (estimator.ApplianceLoad, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 4 {
		return estimator.ApplianceLoad{}, fmt.Errorf("appliance %q: want name:watts:quantity:hours", raw)
	}
	n := len(parts)
	watts, err := strconv.ParseFloat(parts[n-3], 64)
	if err != nil {
		return estimator.ApplianceLoad{}, fmt.Errorf("appliance %q: watts: %w", raw, err)
	}
	qty, err := strconv.Atoi(parts[n-2])
	if err != nil {
		return estimator.ApplianceLoad{}, fmt.Errorf("appliance %q: quantity: %w", raw, err)
	}
	hours, err := strconv.ParseFloat(parts[n-1], 64)
	if err != nil {
		return estimator.ApplianceLoad{}, fmt.Errorf("appliance %q: hours: %w", raw, err)
	}
	return estimator.ApplianceLoad{
		Name:         strings.Join(parts[:n-3], ":"),
		WattageWatts: watts,
		Quantity:     qty,
		HoursPerDay:  hours,
	}, nil
}

func render(c *cli.Context, value any, rows [][2]string) error {
	if c.String("format") == "json" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
