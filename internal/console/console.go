// Package console prints the analysis and positions screens as plain text.
package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fno-analyzer/internal/present"
	"fno-analyzer/internal/types"
	"fno-analyzer/internal/view"
)

const (
	analysisEmpty  = "No analysis generated yet. Enter parameters above."
	positionsEmpty = "No open positions found in Zerodha."
)

// Renderer writes snapshots to w.
type Renderer struct {
	w   io.Writer
	fmt *present.Formatter
}

func NewRenderer(w io.Writer, f *present.Formatter) *Renderer {
	return &Renderer{w: w, fmt: f}
}

// Banner formats a failure message the same way the web UI does.
func Banner(message string) string {
	return fmt.Sprintf("Error: %s. Make sure the Backend server is running.", message)
}

// Analysis prints the loading line, the error banner, the placeholder or one
// card per result, following the same rules as the web page.
func (r *Renderer) Analysis(snap view.Snapshot[types.AnalysisResult]) error {
	var b strings.Builder

	if snap.State.IsLoading() {
		b.WriteString("Analyzing...\n")
	}
	if snap.State.IsFailed() {
		b.WriteString(Banner(snap.State.Message()) + "\n")
	}
	if snap.ShowEmpty() {
		b.WriteString(analysisEmpty + "\n")
	}
	for i, res := range snap.Items() {
		if i > 0 {
			b.WriteString("\n")
		}
		r.card(&b, res)
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) card(b *strings.Builder, res types.AnalysisResult) {
	fmt.Fprintf(b, "== %s  %s  %s %s", res.Stock, r.fmt.Money(res.Spot), present.SignalIcon(res.Signal), res.Signal)
	if present.ShowPCR(res.PCR) {
		fmt.Fprintf(b, "  PCR %s", present.Fixed(*res.PCR))
	}
	b.WriteString("\n")
	if res.Prediction != "" {
		fmt.Fprintf(b, "   %s\n", res.Prediction)
	}

	st := res.Stats
	fmt.Fprintf(b, "   %s\n", st.StrategyName)
	fmt.Fprintf(b, "   Premium paid %s | received %s\n", r.fmt.Money(st.PremiumPaid), r.fmt.Money(st.PremiumReceived))
	fmt.Fprintf(b, "   Max profit %s | max loss %s\n", r.fmt.MaxProfit(st.MaxProfit), r.fmt.Money(st.MaxLoss))
	fmt.Fprintf(b, "   Margin %s | ROI %s\n", r.fmt.Money(st.Margin), present.ROI(st.ROI))
	if len(st.StrikesInvolved) > 0 {
		fmt.Fprintf(b, "   Strikes %s\n", strings.Join(st.StrikesInvolved, ", "))
	}
	if st.Commentary != "" {
		fmt.Fprintf(b, "   %s\n", st.Commentary)
	}

	if sr := res.SellerRecommendation; sr != nil {
		fmt.Fprintf(b, "   Seller idea: %s\n", sr.Strategy)
		for _, o := range sr.Options {
			fmt.Fprintf(b, "     %s  POP %s%%  credit %s  max loss %s\n", o.Strikes, present.Fixed(o.POP), r.fmt.Money(o.NetCredit), r.fmt.Money(o.MaxLoss))
		}
		if sr.Rationale != "" {
			fmt.Fprintf(b, "     %s\n", sr.Rationale)
		}
	}

	if s := res.Sentiment; s != nil {
		fmt.Fprintf(b, "   Sentiment %s (%s)\n", s.Mood, present.Fixed(s.Score))
		for _, h := range present.Headlines(s) {
			fmt.Fprintf(b, "     - %s\n", h.Title)
		}
	}
}

// Positions prints the positions as a table. EXIT rows carry a warning marker.
func (r *Renderer) Positions(snap view.Snapshot[types.Position]) error {
	if snap.State.IsLoading() {
		if _, err := io.WriteString(r.w, "Loading positions...\n"); err != nil {
			return err
		}
	}
	if snap.State.IsFailed() {
		if _, err := fmt.Fprintln(r.w, Banner(snap.State.Message())); err != nil {
			return err
		}
	}
	if snap.ShowEmpty() {
		_, err := fmt.Fprintln(r.w, positionsEmpty)
		return err
	}

	items := snap.Items()
	if len(items) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tQTY\tAVG\tLTP\tUNDERLYING\tP&L\tACTION\tREASON")
	fmt.Fprintln(tw, "------\t---\t---\t---\t----------\t---\t------\t------")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s %s\t%s\n",
			p.Symbol, p.Qty,
			present.Fixed(p.AvgPrice), present.Fixed(p.LTP), present.Fixed(p.UnderlyingPrice),
			present.SignedFixed(p.PnL),
			present.ActionIcon(p), p.Action, p.Reason)
	}
	return tw.Flush()
}
