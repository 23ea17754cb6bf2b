package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Unlimited is the sentinel the service sends when a strategy has no profit cap.
const Unlimited = "Unlimited"

// MaxProfit is either a capped amount or Unlimited.
type MaxProfit struct {
	Amount    decimal.Decimal
	Unlimited bool
}

// CappedProfit returns a MaxProfit holding amount.
func CappedProfit(amount decimal.Decimal) MaxProfit {
	return MaxProfit{Amount: amount}
}

// UnlimitedProfit returns the uncapped MaxProfit.
func UnlimitedProfit() MaxProfit {
	return MaxProfit{Unlimited: true}
}

func (m MaxProfit) MarshalJSON() ([]byte, error) {
	if m.Unlimited {
		return json.Marshal(Unlimited)
	}
	return []byte(m.Amount.String()), nil
}

func (m *MaxProfit) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = MaxProfit{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == Unlimited {
			*m = UnlimitedProfit()
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("max_profit: %q is neither a number nor %q", s, Unlimited)
		}
		*m = CappedProfit(d)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("max_profit: %w", err)
	}
	*m = CappedProfit(d)
	return nil
}
