package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy is one of the options strategies the analysis service can price.
type Strategy string

const (
	BullCall     Strategy = "Bull Call"
	BearCall     Strategy = "Bear Call"
	BullPut      Strategy = "Bull Put"
	BearPut      Strategy = "Bear Put"
	LongStraddle Strategy = "Long Straddle"
)

// DefaultStrategy is preselected in the analysis form.
const DefaultStrategy = BullCall

// Strategies lists the supported strategies in form order.
func Strategies() []Strategy {
	return []Strategy{BullCall, BearCall, BullPut, BearPut, LongStraddle}
}

// Label returns the human readable name shown in strategy pickers.
func (s Strategy) Label() string {
	switch s {
	case BullCall, BearCall, BullPut, BearPut:
		return string(s) + " Spread"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	for _, known := range Strategies() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStrategy maps a wire name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown strategy %q", name)
	}
	return s, nil
}

// Directional signals returned by the analysis service. Anything else is neutral.
const (
	SignalBullish = "Bullish"
	SignalBearish = "Bearish"
)

// Headline sentiment tags. Anything else is neutral.
const (
	HeadlinePositive = "Positive"
	HeadlineNegative = "Negative"
)

// ActionExit is the position action that asks the holder to close out.
const ActionExit = "EXIT"

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	Stocks   []string `json:"stocks"`
	Strategy Strategy `json:"strategy"`
}

// AnalysisResult is one strategy recommendation for one ticker.
type AnalysisResult struct {
	Stock                string                `json:"stock"`
	Spot                 decimal.Decimal       `json:"spot"`
	Prediction           string                `json:"prediction"`
	Signal               string                `json:"signal"`
	PCR                  *decimal.Decimal      `json:"pcr,omitempty"`
	Stats                StrategyStats         `json:"stats"`
	SellerRecommendation *SellerRecommendation `json:"seller_recommendation,omitempty"`
	Sentiment            *Sentiment            `json:"sentiment,omitempty"`
}

// StrategyStats holds the economics of the requested strategy.
type StrategyStats struct {
	StrategyName    string          `json:"strategy_name"`
	Spot            decimal.Decimal `json:"spot"`
	PremiumPaid     decimal.Decimal `json:"premium_paid"`
	PremiumReceived decimal.Decimal `json:"premium_received"`
	MaxProfit       MaxProfit       `json:"max_profit"`
	MaxLoss         decimal.Decimal `json:"max_loss"`
	Margin          decimal.Decimal `json:"margin"`
	ROI             decimal.Decimal `json:"roi"`
	StrikesInvolved []string        `json:"strikes_involved"`
	Commentary      string          `json:"commentary"`
}

// SellerRecommendation is an alternate premium-selling idea.
type SellerRecommendation struct {
	Strategy  string         `json:"strategy"`
	Options   []SellerOption `json:"options,omitempty"`
	Rationale string         `json:"rationale"`
}

// SellerOption is one candidate leg set of a seller recommendation.
type SellerOption struct {
	Strikes   string          `json:"strikes"`
	POP       decimal.Decimal `json:"pop"`
	NetCredit decimal.Decimal `json:"net_credit"`
	MaxLoss   decimal.Decimal `json:"max_loss"`
	RRRatio   decimal.Decimal `json:"rr_ratio"`
	EV        decimal.Decimal `json:"ev"`
}

// Sentiment is the news-derived mood for a stock.
type Sentiment struct {
	Score     decimal.Decimal `json:"score"`
	Mood      string          `json:"mood"`
	Headlines []Headline      `json:"headlines,omitempty"`
	Catalysts []string        `json:"catalysts,omitempty"`
}

type Headline struct {
	Title     string `json:"title"`
	Sentiment string `json:"sentiment"`
}

// Position is one open brokerage position with the service's exit/hold call.
type Position struct {
	Symbol          string          `json:"symbol"`
	Qty             int             `json:"qty"`
	AvgPrice        decimal.Decimal `json:"avg_price"`
	LTP             decimal.Decimal `json:"ltp"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	PnL             decimal.Decimal `json:"pnl"`
	Action          string          `json:"action"`
	Reason          string          `json:"reason"`
}

// IsExit reports whether the service recommends closing the position.
func (p Position) IsExit() bool {
	return p.Action == ActionExit
}

// Envelope is the {"data": [...]} wrapper both endpoints respond with.
type Envelope[T any] struct {
	Data []T `json:"data"`
}

// HealthStatus is the body of GET / on the analysis service.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
