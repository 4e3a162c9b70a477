package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"tradingdesk/internal/game"
	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

var out io.Writer = color.Output

func printSuccess(msg string) {
	success.Fprintln(out, msg)
}

func printWarn(msg string) {
	warn.Fprintln(out, msg)
}

func printError(msg string) {
	danger.Fprintln(out, msg)
}

func printInfo(msg string) {
	neutral.Fprintln(out, msg)
}

func promptOptional(label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func renderDesk(d game.DeskView) {
	accent.Fprintf(out, "\n== DESK (Day %d, %s) ==\n", d.Day, d.Phase)
	if d.Tutorial {
		warn.Fprintln(out, "Tutorial mode: progress is not saved.")
	}
	fmt.Fprintf(out, "Cash:            %s\n", money(d.Cash))
	fmt.Fprintf(out, "Holdings:        %s\n", money(d.HoldingsValue))
	fmt.Fprintf(out, "Total Value:     %s\n", money(d.TotalValue))
	fmt.Fprintf(out, "Realized P/L:    %s\n", colorizeMoney(d.RealizedPnL))
	fmt.Fprintf(out, "Reputation:      %d (%s)\n", d.Reputation, d.Tier)
	fmt.Fprintf(out, "Fund:            %s at %s/s (tap +%.0f%%)\n", money(d.FundSize), money(d.IncomePerSecond), d.TapBoost)
	if d.PendingOffline > 0 {
		success.Fprintf(out, "Offline earnings waiting: %s\n", money(d.PendingOffline))
	}
	if d.ClientUsedToday {
		fmt.Fprintln(out, "New client:      onboarded today")
	} else {
		fmt.Fprintln(out, "New client:      available")
	}
	if d.Suspended {
		warn.Fprintln(out, "Desk is suspended.")
	}
	if d.LastClose != nil {
		fmt.Fprintf(out, "Last close:      %s (reputation %+d)\n", colorizeMoney(d.LastClose.PnL), d.LastClose.ReputationDelta)
	}
}

func renderInstruments(list []game.InstrumentView) {
	table := tablewriter.NewWriter(out)
	table.Header("Symbol", "Name", "Sector", "Price", "Change", "Change %")
	for _, in := range list {
		table.Append(
			in.Symbol,
			truncate(in.Name, 24),
			in.Sector,
			money(in.Price),
			colorizeMoney(in.Change),
			colorizePercent(in.ChangePercent),
		)
	}
	table.Render()
}

func renderInstrument(in game.InstrumentView) {
	accent.Fprintf(out, "\n%s  %s (%s)\n", in.Symbol, in.Name, in.Sector)
	fmt.Fprintf(out, "Price:       %s\n", money(in.Price))
	fmt.Fprintf(out, "Change:      %s (%s)\n", colorizeMoney(in.Change), colorizePercent(in.ChangePercent))
	fmt.Fprintf(out, "Volatility:  %.1f%%\n", in.Volatility*100)
	if len(in.History) > 0 {
		fmt.Fprintf(out, "History:     %s\n", sparkline(in.History))
	}
}

func renderNews(items []market.NewsItem) {
	if len(items) == 0 {
		printInfo("Quiet day. No major headlines.")
		return
	}
	for _, n := range items {
		accent.Fprintf(out, "\n[%s] %s\n", n.Category, n.Headline)
		fmt.Fprintln(out, n.Body)
		if len(n.AffectedSymbols) > 0 {
			fmt.Fprintf(out, "Affects: %s\n", strings.Join(n.AffectedSymbols, ", "))
		}
	}
}

func renderPortfolio(p game.PortfolioView) {
	accent.Fprintln(out, "\n== PORTFOLIO ==")
	fmt.Fprintf(out, "Cash: %s  Holdings: %s  Total: %s  Realized: %s\n",
		money(p.Cash), money(p.HoldingsValue), money(p.TotalValue), colorizeMoney(p.RealizedPnL))
	if len(p.Positions) == 0 {
		printInfo("No open positions yet.")
		return
	}
	table := tablewriter.NewWriter(out)
	table.Header("Symbol", "Name", "Shares", "Avg Cost", "Price", "Value", "P/L")
	for _, pos := range p.Positions {
		table.Append(
			pos.Symbol,
			truncate(pos.Name, 22),
			fmt.Sprintf("%d", pos.Shares),
			money(pos.AvgCost),
			money(pos.Price),
			money(pos.Value),
			colorizeMoney(pos.Unrealized),
		)
	}
	table.Render()
}

func renderTrade(res game.TradeResult) {
	verb := "Bought"
	if res.Side == game.Sell {
		verb = "Sold"
	}
	msg := fmt.Sprintf("%s %d %s at %s for %s", verb, res.Fill.Shares, res.Fill.Symbol, money(res.Fill.Price), money(res.Fill.Amount))
	printSuccess(msg)
	if res.Side == game.Sell {
		fmt.Fprintf(out, "Realized P/L: %s\n", colorizeMoney(res.Fill.Realized))
	}
	fmt.Fprintf(out, "Cash: %s\n", money(res.Cash))
}

func renderSummary(sum market.DaySummary) {
	accent.Fprintln(out, "\n== DAY CLOSED ==")
	fmt.Fprintf(out, "P/L:          %s (%s)\n", colorizeMoney(sum.PnL), colorizePercent(sum.Return()*100))
	fmt.Fprintf(out, "Reputation:   %+d\n", sum.ReputationDelta)
	if len(sum.Moves) > 0 {
		table := tablewriter.NewWriter(out)
		table.Header("Symbol", "Shares", "Prev", "Now", "P/L")
		for _, m := range sum.Moves {
			table.Append(m.Symbol, fmt.Sprintf("%d", m.Shares), money(m.Previous), money(m.Price), colorizeMoney(m.PnL))
		}
		table.Render()
	}
	renderNews(sum.News)
}

func renderBoosts(list []idle.BoostStatus) {
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Effect", "Status")
	for _, b := range list {
		status := success.Sprint("ready")
		switch {
		case b.Active:
			status = accent.Sprintf("active %s", b.Remaining.Round(time.Second))
		case b.OnCooldown:
			status = warn.Sprintf("cooldown %s", b.CooldownRemaining.Round(time.Second))
		}
		table.Append(b.ID, b.Name, b.Description, status)
	}
	table.Render()
}

func money(v float64) string {
	if v < 0 {
		return "-$" + humanize.CommafWithDigits(-v, 2)
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}

func colorizeMoney(v float64) string {
	switch {
	case v > 0:
		return success.Sprint("+" + money(v))
	case v < 0:
		return danger.Sprint(money(v))
	default:
		return neutral.Sprint(money(v))
	}
}

func colorizePercent(v float64) string {
	s := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(s)
	case v < 0:
		return danger.Sprint(s)
	default:
		return neutral.Sprint(s)
	}
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[i])
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
