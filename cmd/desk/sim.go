package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tradingdesk/internal/clock"
	"tradingdesk/internal/game"
	"tradingdesk/internal/market"
	"tradingdesk/internal/progression"
)

type simOptions struct {
	Days   int
	Seed   int64
	Symbol string
	Qty    int
	Ticks  int
	Client bool
}

type simDay struct {
	Day        int
	PnL        float64
	Reputation int
	Tier       progression.Tier
	Income     float64
	TotalValue float64
	Headlines  []string
}

var simEpoch = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// runSim plays opts.Days days on a local session. With a fixed seed the run
// is reproducible.
func runSim(opts simOptions) ([]simDay, error) {
	if opts.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", opts.Days)
	}
	clk := clock.NewManual(simEpoch)
	n := 0
	s := game.NewSession(game.Deps{
		Clock: clk,
		Rand:  market.NewRand(opts.Seed),
		NewID: func() string { n++; return fmt.Sprintf("sim-%d", n) },
	})

	if opts.Symbol != "" && opts.Qty > 0 {
		if _, err := s.Buy(opts.Symbol, opts.Qty); err != nil {
			return nil, fmt.Errorf("buy %d %s: %w", opts.Qty, opts.Symbol, err)
		}
	}

	days := make([]simDay, 0, opts.Days)
	for i := 0; i < opts.Days; i++ {
		if opts.Client {
			if _, err := s.NewClient(); err != nil {
				return nil, err
			}
		}
		income := 0.0
		for t := 0; t < opts.Ticks; t++ {
			clk.Advance(time.Second)
			income += s.Tick().Income
		}

		sum, err := s.CloseDay()
		if err != nil {
			return nil, err
		}
		day := simDay{
			Day:        s.Day(),
			PnL:        sum.PnL,
			Reputation: s.Reputation(),
			Tier:       s.Tier(),
			Income:     income,
			TotalValue: s.Desk().TotalValue,
		}
		for _, item := range sum.News {
			day.Headlines = append(day.Headlines, item.Headline)
		}
		days = append(days, day)

		if _, err := s.StartNextDay(); err != nil {
			return nil, err
		}
	}
	return days, nil
}

func newSimCmd() *cobra.Command {
	var opts simOptions
	var verbose bool
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulate days on a local desk without a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := runSim(opts)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(out)
			table.Header("Day", "P/L", "Reputation", "Tier", "Fund Income", "Total Value", "News")
			for _, d := range days {
				table.Append(
					fmt.Sprintf("%d", d.Day),
					colorizeMoney(d.PnL),
					fmt.Sprintf("%d", d.Reputation),
					string(d.Tier),
					money(d.Income),
					money(d.TotalValue),
					fmt.Sprintf("%d", len(d.Headlines)),
				)
			}
			table.Render()
			if verbose {
				for _, d := range days {
					for _, h := range d.Headlines {
						fmt.Fprintf(out, "day %d: %s\n", d.Day, h)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Days, "days", 5, "number of days to play")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVar(&opts.Symbol, "buy", "", "symbol to buy on day one and hold")
	cmd.Flags().IntVar(&opts.Qty, "qty", 100, "shares to buy with --buy")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "idle ticks (seconds) per day")
	cmd.Flags().BoolVar(&opts.Client, "client", false, "onboard the daily new client")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print headlines")
	return cmd
}
