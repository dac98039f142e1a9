package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moonfolio/moonfolio/internal/domain"
)

const summaryHeader = `<html>
  <head>
    <style>
      #assets { font-family: Arial, Helvetica, sans-serif; border-collapse: collapse; width: 100%; }
      #assets td, #assets th { border: 1px solid #ddd; padding: 8px; }
      #assets tr:nth-child(even) { background-color: #f2f2f2; }
      #assets th { padding-top: 12px; padding-bottom: 12px; text-align: left; background-color: #0066ff; color: white; }
    </style>
  </head>
  <body>
    <table id="assets">
      <thead>
        <tr><th>Asset</th><th>Quantity</th><th>PRU</th><th>Invested</th></tr>
      </thead>
      <tbody>
`

const summaryFooter = `      </tbody>
    </table>
  </body>
</html>
`

// PositionsHTML renders a wallet's positions as an HTML table for mail
// reports, one row per asset in symbol order, values rounded to 2 decimals
// for display.
func PositionsHTML(positions map[string]domain.Position) string {
	assets := make([]string, 0, len(positions))
	for asset := range positions {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var sb strings.Builder
	sb.WriteString(summaryHeader)
	for _, asset := range assets {
		pos := positions[asset]
		sb.WriteString(fmt.Sprintf(
			"        <tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			asset,
			pos.Quantity.Round(2).String(),
			pos.AverageCost.Round(2).String(),
			pos.Invested().Round(2).String(),
		))
	}
	sb.WriteString(summaryFooter)
	return sb.String()
}
