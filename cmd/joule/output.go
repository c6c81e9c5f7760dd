package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kamilpajak/joule/pkg/tea"
	"github.com/mattn/go-isatty"
)

// stderrIsTerminal reports whether decorated progress output (spinners,
// in-place updates) is appropriate. Plain log lines are used otherwise.
func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

func printConfidenceBar(w io.Writer, label string, confidence float64) {
	const barWidth = 24
	filled := int(confidence) * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	var barColor *color.Color
	switch {
	case confidence >= 80:
		barColor = color.New(color.FgGreen)
	case confidence >= 40:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(w, "  %s %5.1f%% ", label, confidence)
	_, _ = barColor.Fprintln(w, bar)
}

func printMetrics(w io.Writer, res *tea.Result) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(w, "METRICS")
	fmt.Fprintf(w, "  LCOE:       $%.4f/kWh\n", res.LCOE)
	fmt.Fprintf(w, "  NPV:        %s\n", formatMoney(res.NPV))
	fmt.Fprintf(w, "  IRR:        %.1f%%\n", res.IRR*100)
	if res.PaybackYears > 0 {
		fmt.Fprintf(w, "  Payback:    %.1f years\n", res.PaybackYears)
	} else {
		fmt.Fprintln(w, "  Payback:    never")
	}
	if res.MSP != nil {
		fmt.Fprintf(w, "  MSP:        $%.4f/kWh\n", *res.MSP)
	}
	fmt.Fprintf(w, "  Capex:      %s\n", formatMoney(res.TotalCapex))
	fmt.Fprintf(w, "  Opex/year:  %s\n", formatMoney(res.TotalOpexYear))
	fmt.Fprintf(w, "  Production: %.0f MWh/year\n", res.AnnualProductionMWh)
}

func formatMoney(v float64) string {
	abs := v
	sign := ""
	if v < 0 {
		abs = -v
		sign = "-"
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s$%.1fk", sign, abs/1e3)
	default:
		return fmt.Sprintf("%s$%.0f", sign, abs)
	}
}

func checkMark(passed bool) string {
	if passed {
		return color.New(color.FgGreen).Sprint("✓")
	}
	return color.New(color.FgRed).Sprint("✗")
}

func printIssueList(w io.Writer, heading string, items []string, c *color.Color) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	_, _ = c.Fprintln(w, heading)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
