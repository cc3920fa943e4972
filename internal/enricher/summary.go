package enricher

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"sheetquote/internal/workbook"
	"sheetquote/models"
)

// Summary returns a markdown report of a run: one table row per symbol.
func Summary(result *models.RunResult) string {
	closeLabel, capLabel := workbook.ColumnLabels(result.Date)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run %s\n\n", result.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "| Symbol | Type | %s | %s | Status |\n", closeLabel, capLabel)
	sb.WriteString("|---|---|---:|---:|---|\n")

	failed := 0
	for _, o := range result.Outcomes {
		status := string(o.Status)
		if o.Err != nil {
			failed++
			status = fmt.Sprintf("%s: %v", o.Status, o.Err)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			o.Symbol, o.QuoteType, cellText(o.Price, "%.2f"), cellText(o.MarketCapT, "%g"), escape(status))
	}

	fmt.Fprintf(&sb, "\n%d symbols, %d prices, %d market caps, %d failed.\n",
		len(result.Outcomes), len(result.Prices), len(result.MarketCaps), failed)
	if w := result.Write; w != nil {
		fmt.Fprintf(&sb, "Columns written at %d and %d, %d rows updated.\n", w.CloseColumn, w.MarketCapColumn, w.RowsWritten)
	}
	return sb.String()
}

// RenderSummary renders Summary for the terminal with the given glamour style.
func RenderSummary(result *models.RunResult, style string) (string, error) {
	return glamour.Render(Summary(result), style)
}

func cellText(v *float64, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
