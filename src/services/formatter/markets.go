// Package formatter turns the market status and event category endpoints into
// Markdown blocks for the chat log.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"talk2trade/src/models"
)

const (
	// MarketStatusAvailable is the status value that carries market data.
	MarketStatusAvailable = "data_available"

	NoMarketDataMessage     = "No market data available. Try refreshing the markets first."
	MarketDataFailedMessage = "Sorry, I couldn't load market data. Please try again."
)

// MarketData renders a market status reply. A status other than
// data_available yields NoMarketDataMessage.
func MarketData(status *models.MarketStatus) string {
	if status == nil || !strings.EqualFold(strings.TrimSpace(status.Status), MarketStatusAvailable) {
		return NoMarketDataMessage
	}

	var sb strings.Builder
	sb.WriteString("📊 **Market Data Status**\n\n")
	fmt.Fprintf(&sb, "- Active markets: %d\n", status.MarketsCount)
	fmt.Fprintf(&sb, "- Last updated: %s\n", orUnknown(status.LastUpdated))

	if len(status.SampleMarkets) > 0 {
		sb.WriteString("\n**Sample markets:**\n\n")
		for _, m := range status.SampleMarkets {
			fmt.Fprintf(&sb, "- **%s**: status %s, price %s, volume %s\n",
				orUnknown(m.Title), orUnknown(m.Status), formatNumber(m.LastPrice), formatNumber(m.Volume))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

// formatNumber prints integral values without a fraction and groups thousands.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return groupThousands(strconv.FormatInt(int64(v), 10))
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var sb strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	return sign + sb.String()
}
