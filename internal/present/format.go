// Package present holds the display rules shared by the web and console
// renderers: number formatting and which tone a value is shown in. None of
// it changes what the analysis service decided.
package present

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fno-analyzer/internal/types"
)

// DefaultLocale groups digits the way NSE amounts are usually written.
const DefaultLocale = "en-IN"

const (
	currencySymbol = "₹"
	notApplicable  = "N/A"
	topHeadlines   = 3
)

// Tone is the visual emphasis of a value. It doubles as a CSS class suffix.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
	ToneNeutral Tone = "neutral"
)

var (
	pcrBullish     = decimal.RequireFromString("1.2")
	pcrBearish     = decimal.RequireFromString("0.6")
	moodThreshold  = decimal.RequireFromString("0.1")
	negativeMood   = moodThreshold.Neg()
	percentDecimal = int32(2)
)

// Formatter renders numbers for one locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for a BCP 47 locale such as "en-IN".
func NewFormatter(locale string) (*Formatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag)}, nil
}

// Number groups digits and keeps at most two fraction digits.
func (f *Formatter) Number(d decimal.Decimal) string {
	return f.printer.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2)))
}

// Money is Number with the rupee sign.
func (f *Formatter) Money(d decimal.Decimal) string {
	return currencySymbol + f.Number(d)
}

// MaxProfit prints the sentinel verbatim and amounts as Money.
func (f *Formatter) MaxProfit(m types.MaxProfit) string {
	if m.Unlimited {
		return types.Unlimited
	}
	return f.Money(m.Amount)
}

// Fixed prints d with exactly two decimals and no grouping.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SignedFixed prints d with two decimals and a leading "+" when not negative.
func SignedFixed(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

// ROI prints a positive return as a percentage and anything else as N/A.
func ROI(roi decimal.Decimal) string {
	if roi.Sign() > 0 {
		return roi.Round(percentDecimal).String() + "%"
	}
	return notApplicable
}

func ROITone(roi decimal.Decimal) Tone {
	if roi.Sign() > 0 {
		return ToneSuccess
	}
	return ToneWarning
}

// SignalTone maps Bullish/Bearish to success/danger; other signals are neutral.
func SignalTone(signal string) Tone {
	switch signal {
	case types.SignalBullish:
		return ToneSuccess
	case types.SignalBearish:
		return ToneDanger
	default:
		return ToneNeutral
	}
}

// SignalIcon is a text glyph for the directional signal.
func SignalIcon(signal string) string {
	switch signal {
	case types.SignalBullish:
		return "▲"
	case types.SignalBearish:
		return "▼"
	default:
		return "–"
	}
}

// PredictionTone is the accent of the prediction box; neutral reads as a warning.
func PredictionTone(signal string) Tone {
	if t := SignalTone(signal); t != ToneNeutral {
		return t
	}
	return ToneWarning
}

// ShowPCR reports whether a put-call ratio was supplied.
func ShowPCR(pcr *decimal.Decimal) bool {
	return pcr != nil && !pcr.IsZero()
}

// PCRTone is success above 1.2, danger below 0.6.
func PCRTone(pcr decimal.Decimal) Tone {
	switch {
	case pcr.GreaterThan(pcrBullish):
		return ToneSuccess
	case pcr.LessThan(pcrBearish):
		return ToneDanger
	default:
		return ToneNeutral
	}
}

// SentimentTone is success above +0.1, danger below -0.1.
func SentimentTone(score decimal.Decimal) Tone {
	switch {
	case score.GreaterThan(moodThreshold):
		return ToneSuccess
	case score.LessThan(negativeMood):
		return ToneDanger
	default:
		return ToneNeutral
	}
}

func HeadlineTone(tag string) Tone {
	switch tag {
	case types.HeadlinePositive:
		return ToneSuccess
	case types.HeadlineNegative:
		return ToneDanger
	default:
		return ToneNeutral
	}
}

// Headlines returns the first three headlines.
func Headlines(s *types.Sentiment) []types.Headline {
	if s == nil {
		return nil
	}
	if len(s.Headlines) > topHeadlines {
		return s.Headlines[:topHeadlines]
	}
	return s.Headlines
}

// PremiumPaidTone flags a net debit.
func PremiumPaidTone(stats types.StrategyStats) Tone {
	if stats.PremiumPaid.GreaterThan(stats.PremiumReceived) {
		return ToneDanger
	}
	return ToneSuccess
}

// PnLTone is success for zero or profit.
func PnLTone(pnl decimal.Decimal) Tone {
	if pnl.Sign() >= 0 {
		return ToneSuccess
	}
	return ToneDanger
}

// PositionTone is warning exactly when the service says EXIT.
func PositionTone(p types.Position) Tone {
	if p.IsExit() {
		return ToneWarning
	}
	return ToneSuccess
}

// ActionIcon pairs with PositionTone.
func ActionIcon(p types.Position) string {
	if p.IsExit() {
		return "⚠"
	}
	return "✔"
}
