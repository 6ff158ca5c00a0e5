package bench

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

// group returns results per scenario in first seen order.
func group(results []Result) ([]string, map[string][]Result) {
	var order []string
	byScenario := map[string][]Result{}
	for _, r := range results {
		if _, ok := byScenario[r.Scenario]; !ok {
			order = append(order, r.Scenario)
		}
		byScenario[r.Scenario] = append(byScenario[r.Scenario], r)
	}
	return order, byScenario
}

// Ratio compares the fastest and slowest side of one scenario by ops/s. It
// reports false when any side failed or did no work.
func Ratio(side []Result) (fastest string, ratio float64, ok bool) {
	if len(side) < 2 {
		return "", 0, false
	}
	best, worst := side[0], side[0]
	for _, r := range side {
		if r.Failed() || r.OpsPerSec() == 0 {
			return "", 0, false
		}
		if r.OpsPerSec() > best.OpsPerSec() {
			best = r
		}
		if r.OpsPerSec() < worst.OpsPerSec() {
			worst = r
		}
	}
	return best.Binding, best.OpsPerSec() / worst.OpsPerSec(), true
}

// WriteSummary renders one row per scenario with each binding's ops/s and
// how much faster the quickest binding was.
func WriteSummary(w io.Writer, bindings []string, results []Result) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	// Binding names are lower case and must print as given.
	tw.Style().Format.Header = text.FormatDefault

	header := table.Row{"#", "Scenario"}
	for _, b := range bindings {
		header = append(header, b+" ops/s")
	}
	header = append(header, "Faster")
	tw.AppendHeader(header)

	order, byScenario := group(results)
	for k, name := range order {
		side := byScenario[name]
		row := table.Row{k + 1, name}
		for _, b := range bindings {
			row = append(row, cell(side, b))
		}
		if fastest, ratio, ok := Ratio(side); ok {
			row = append(row, fmt.Sprintf("%s %.2fx", fastest, ratio))
		} else {
			row = append(row, "-")
		}
		tw.AppendRow(row)
	}
	fmt.Fprintln(w, tw.Render())
}

func cell(side []Result, binding string) string {
	for _, r := range side {
		if r.Binding != binding {
			continue
		}
		if r.Failed() {
			return fmt.Sprintf("FAILED (%d/%d)", r.Completed, r.Iterations)
		}
		return fmt.Sprintf("%.1f", r.OpsPerSec())
	}
	return "-"
}
