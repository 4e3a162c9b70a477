package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "tradingdesk/internal/cli"
	"tradingdesk/internal/config"
	"tradingdesk/internal/game"
	"tradingdesk/internal/syncq"
)

type options struct {
	apiBase   string
	queuePath string
	noQueue   bool
}

func main() {
	cfg := config.LoadCLI()
	opts := &options{apiBase: cfg.APIBaseURL, queuePath: cfg.QueuePath}

	root := &cobra.Command{
		Use:          "desk",
		Short:        "Trading desk CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiBase, "api", opts.apiBase, "desk server base URL")
	root.PersistentFlags().StringVar(&opts.queuePath, "queue", opts.queuePath, "offline queue file (default ~/.desk/queue.json)")
	root.PersistentFlags().BoolVar(&opts.noQueue, "no-queue", false, "fail instead of queueing when the server is down")

	root.AddCommand(
		newStatusCmd(opts),
		newMarketCmd(opts),
		newNewsCmd(opts),
		newPortfolioCmd(opts),
		newTradeCmd(opts, game.Buy),
		newTradeCmd(opts, game.Sell),
		newCloseCmd(opts),
		newNextCmd(opts),
		newClientCmd(opts),
		newTapCmd(opts),
		newBoostsCmd(opts),
		newBoostCmd(opts),
		newCollectCmd(opts),
		newFeedCmd(opts),
		newSuspendCmd(opts),
		newResumeCmd(opts),
		newTutorialCmd(opts),
		newResetCmd(opts),
		newSyncCmd(opts),
		newSimCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(opts *options) (*cl.Client, error) {
	client := cl.NewClient(strings.TrimRight(strings.TrimSpace(opts.apiBase), "/"))
	if opts.noQueue {
		return client, nil
	}
	q, err := syncq.Open(opts.queuePath)
	if err != nil {
		return nil, err
	}
	client.Queue = q
	return client, nil
}

func withClient(cmd *cobra.Command, opts *options, fn func(ctx context.Context, c *cl.Client) error) error {
	client, err := newClient(opts)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	err = fn(ctx, client)
	if errors.Is(err, cl.ErrQueued) {
		printWarn("Server unreachable. Command queued; run `desk sync` once it is back.")
		return nil
	}
	return err
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show the desk summary",
		Aliases: []string{"dash"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				d, err := c.Desk(ctx)
				if err != nil {
					return err
				}
				renderDesk(d)
				return nil
			})
		},
	}
}

func newMarketCmd(opts *options) *cobra.Command {
	var sector string
	cmd := &cobra.Command{
		Use:   "market [SYMBOL]",
		Short: "List instruments or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				if len(args) == 1 {
					in, err := c.Instrument(ctx, args[0])
					if err != nil {
						return err
					}
					renderInstrument(in)
					return nil
				}
				list, err := c.Instruments(ctx, sector)
				if err != nil {
					return err
				}
				renderInstruments(list)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "only show one sector")
	return cmd
}

func newNewsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Show the headlines of the last close",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				items, err := c.News(ctx)
				if err != nil {
					return err
				}
				renderNews(items)
				return nil
			})
		},
	}
}

func newPortfolioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "portfolio",
		Short:   "Show cash and positions",
		Aliases: []string{"pf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				p, err := c.Portfolio(ctx)
				if err != nil {
					return err
				}
				renderPortfolio(p)
				return nil
			})
		},
	}
}

func newTradeCmd(opts *options, side game.Side) *cobra.Command {
	return &cobra.Command{
		Use:   string(side) + " SYMBOL QTY",
		Short: strings.ToUpper(string(side[:1])) + string(side[1:]) + " whole shares at the current price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty <= 0 {
				return fmt.Errorf("quantity must be a positive whole number, got %q", args[1])
			}
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				res, err := c.PlaceOrder(ctx, side, args[0], qty)
				if err != nil {
					return err
				}
				renderTrade(res)
				return nil
			})
		},
	}
}

func newCloseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the trading day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				sum, err := c.CloseDay(ctx)
				if err != nil {
					return err
				}
				renderSummary(sum)
				return nil
			})
		},
	}
}

func newNextCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Start the next trading day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				d, err := c.NextDay(ctx)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Day %d open. Tier: %s", d.Day, d.Tier))
				return nil
			})
		},
	}
}

func newClientCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "client",
		Short: "Onboard today's new client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				amount, err := c.NewClientCapital(ctx)
				if err != nil {
					return err
				}
				printSuccess("New client onboarded. Capital added: " + money(amount))
				return nil
			})
		},
	}
}

func newTapCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tap [N]",
		Short: "Tap to boost fund income",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			times := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("tap count must be a positive whole number, got %q", args[0])
				}
				times = n
			}
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				boost, err := c.Tap(ctx, times)
				if err != nil {
					return err
				}
				printInfo(fmt.Sprintf("Tap boost: +%.0f%%", boost))
				return nil
			})
		},
	}
}

func newBoostsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "boosts",
		Short: "List rewarded boosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				list, err := c.Boosts(ctx)
				if err != nil {
					return err
				}
				renderBoosts(list)
				return nil
			})
		},
	}
}

func newBoostCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "boost ID",
		Short: "Activate a rewarded boost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				act, err := c.ActivateBoost(ctx, args[0])
				if err != nil {
					return err
				}
				printSuccess(act.Boost.Name + " activated.")
				if act.Collected > 0 {
					printSuccess("Collected " + money(act.Collected) + " in offline fund income")
				}
				return nil
			})
		},
	}
}

func newCollectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Collect pending offline earnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				amount, err := c.CollectOffline(ctx)
				if err != nil {
					return err
				}
				printSuccess("Collected " + money(amount) + " in offline fund income")
				return nil
			})
		},
	}
}

func newFeedCmd(opts *options) *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show recent desk messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				items, err := c.Feed(ctx)
				if err != nil {
					return err
				}
				if last > 0 && len(items) > last {
					items = items[len(items)-last:]
				}
				for _, m := range items {
					printInfo(m)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 15, "number of messages (0 for all)")
	return cmd
}

func newSuspendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "suspend",
		Short: "Pause the desk; offline earnings accrue until resume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				if _, err := c.Suspend(ctx); err != nil {
					return err
				}
				printInfo("Desk suspended.")
				return nil
			})
		},
	}
}

func newResumeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the desk and price offline earnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				d, err := c.Resume(ctx)
				if err != nil {
					return err
				}
				if d.WelcomeBack {
					printSuccess("Welcome back! " + money(d.PendingOffline) + " waiting. Run `desk collect`.")
					return nil
				}
				printInfo("Desk resumed.")
				return nil
			})
		},
	}
}

func newTutorialCmd(opts *options) *cobra.Command {
	tut := &cobra.Command{
		Use:   "tutorial",
		Short: "Tutorial mode (progress is not saved)",
	}
	tut.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start a fresh tutorial desk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				if _, err := c.StartTutorial(ctx); err != nil {
					return err
				}
				printSuccess("Tutorial started. Try `desk buy " + game.TutorialSymbol + " 10`.")
				return nil
			})
		},
	})
	tut.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Leave tutorial mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				if _, err := c.StopTutorial(ctx); err != nil {
					return err
				}
				printInfo("Tutorial finished.")
				return nil
			})
		},
	})
	return tut
}

func newResetCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the desk back to day one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := promptOptional("Reset the desk? Type yes to confirm")
				if err != nil {
					return err
				}
				if !strings.EqualFold(answer, "yes") {
					printWarn("Reset cancelled.")
					return nil
				}
			}
			return withClient(cmd, opts, func(ctx context.Context, c *cl.Client) error {
				if _, err := c.Reset(ctx); err != nil {
					return err
				}
				printSuccess("Desk reset.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay commands queued while the server was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			if client.Queue == nil {
				printInfo("Queueing is disabled.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			results, err := client.Sync(ctx)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			failed := 0
			for _, r := range results {
				if r.Status >= 300 {
					failed++
					printError(fmt.Sprintf("%s: status %d", r.Path, r.Status))
				}
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d failed=%d", len(results)-failed, failed))
			return nil
		},
	}
}
