package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tradelab/crypto-risk-engine/internal/config"
	"github.com/tradelab/crypto-risk-engine/internal/risk"
)

// ConsoleReporter renders startup and portfolio summaries as tables.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a console reporter. A nil writer means stdout.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// PrintStartup prints the engine configuration at launch.
func (r *ConsoleReporter) PrintStartup(cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("RISK ENGINE")
	t.SetStyle(table.StyleRounded)

	mode := "live"
	if cfg.Engine.TestMode {
		mode = "test (no orders)"
	}

	t.AppendRows([]table.Row{
		{"Symbol", cfg.Engine.Symbol},
		{"Interval", cfg.Engine.Interval},
		{"Strategy", cfg.Strategy.Strategy},
		{"Leverage", fmt.Sprintf("%.0fx", cfg.Engine.Leverage)},
		{"Initial Balance", fmt.Sprintf("$%.2f", cfg.Engine.InitialBalance)},
		{"Mode", mode},
	})

	t.AppendSeparator()

	lim := cfg.Risk.Limits
	t.AppendRows([]table.Row{
		{"Risk / Trade", fmt.Sprintf("%.2f%%", lim.RiskPerTrade*100)},
		{"Stop Loss", fmt.Sprintf("%.2f%%", lim.StopLossPct*100)},
		{"Take Profit", fmt.Sprintf("%.2f%%", lim.TakeProfitPct*100)},
		{"Daily Loss Limit", fmt.Sprintf("%.2f%%", lim.DailyLossLimit*100)},
		{"Max Positions", lim.MaxPositions},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintPortfolio prints the current portfolio state and open positions.
func (r *ConsoleReporter) PrintPortfolio(state risk.PortfolioState) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("PORTFOLIO")
	t.SetStyle(table.StyleRounded)

	open := state.OpenPositions()
	t.AppendRows([]table.Row{
		{"Balance", fmt.Sprintf("$%.2f", state.Balance)},
		{"Daily PnL", fmt.Sprintf("$%.2f", state.DailyRealizedPnL)},
		{"Cumulative PnL", fmt.Sprintf("$%.2f", state.CumulativePnL)},
		{"Open Positions", len(open)},
		{"Exposure", fmt.Sprintf("$%.2f", state.AggregateExposure())},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, WidthMax: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 16, WidthMax: 24, Align: text.AlignRight},
	})

	t.Render()

	if len(open) == 0 {
		fmt.Fprintln(r.out)
		return
	}

	pt := table.NewWriter()
	pt.SetOutputMirror(r.out)
	pt.SetStyle(table.StyleRounded)
	pt.AppendHeader(table.Row{"Symbol", "Side", "Amount", "Entry", "Stop", "Target", "PnL"})

	for _, p := range open {
		pt.AppendRow(table.Row{
			p.Symbol,
			string(p.Side),
			fmt.Sprintf("%.6f", p.Amount),
			fmt.Sprintf("%.2f", p.EntryPrice),
			formatLevel(p.StopLoss),
			formatLevel(p.TakeProfit),
			fmt.Sprintf("%.2f", p.PnL),
		})
	}

	pt.Render()
	fmt.Fprintln(r.out)
}

func formatLevel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
