// Package billing computes table bills. Every function is pure; amounts are
// float64 at the boundary and decimal inside, rounded to cents on the way out.
package billing

import (
	"fmt"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// PriceLookup returns the current menu price of an item. When the item is no
// longer on the menu the price snapshotted on the order is used instead.
type PriceLookup func(itemName string) (float64, bool)

// SnapshotPrices never finds a live price, so bills use order snapshots only.
func SnapshotPrices(string) (float64, bool) { return 0, false }

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func unitPrice(item entity.LineItem, prices PriceLookup) decimal.Decimal {
	if prices != nil {
		if p, ok := prices(item.ItemName); ok {
			return dec(p)
		}
	}
	return dec(item.UnitPrice)
}

func orderTotal(o entity.Order, prices PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(dec(it.Quantity).Mul(unitPrice(it, prices)))
	}
	return total
}

func tableTotal(orders []entity.Order, prices PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(orderTotal(o, prices))
	}
	return total
}

// OrderTotal is the sum of quantity times price over the order's items.
func OrderTotal(o entity.Order, prices PriceLookup) float64 {
	return money(orderTotal(o, prices))
}

// TableTotalBeforeDiscount sums every order of the table.
func TableTotalBeforeDiscount(orders []entity.Order, prices PriceLookup) float64 {
	return money(tableTotal(orders, prices))
}

// AfterDiscount never goes below zero.
func AfterDiscount(beforeDiscount, discount float64) float64 {
	return money(maxZero(dec(beforeDiscount).Sub(dec(discount))))
}

// Remaining is what is still owed after prior and new payments.
func Remaining(afterDiscount, priorPaid, newPaid float64) float64 {
	return money(maxZero(dec(afterDiscount).Sub(dec(priorPaid)).Sub(dec(newPaid))))
}

// Sum adds amounts without float drift.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(dec(a))
	}
	return money(total)
}

// PerSplit divides remaining among n people, rounded to cents.
func PerSplit(remaining float64, n int) (float64, error) {
	if n < 1 {
		return 0, fmt.Errorf("split count must be at least 1, got %d", n)
	}
	return money(dec(remaining).DivRound(decimal.NewFromInt(int64(n)), 2)), nil
}

// Change is what goes back to the customer.
func Change(received, remaining float64) float64 {
	return money(maxZero(dec(received).Sub(dec(remaining))))
}

// IsSufficientPayment reports whether received covers remaining.
func IsSufficientPayment(received, remaining float64) bool {
	return dec(received).GreaterThanOrEqual(dec(remaining))
}

// IsPartialPayment reports whether something, but not everything, has been paid.
func IsPartialPayment(priorPaid, newPaid, afterDiscount float64) bool {
	paid := dec(priorPaid).Add(dec(newPaid))
	return paid.IsPositive() && paid.LessThan(dec(afterDiscount))
}

// Line is one item of a bill, aggregated across orders.
type Line struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Lines groups the items of every order by name and price, in the order
// they were first ordered.
func Lines(orders []entity.Order, prices PriceLookup) []Line {
	type acc struct {
		name  string
		qty   decimal.Decimal
		price decimal.Decimal
	}
	var keys []string
	groups := make(map[string]*acc)
	for _, o := range orders {
		for _, it := range o.Items {
			price := unitPrice(it, prices)
			key := utils.NormalizeName(it.ItemName) + "|" + price.String()
			g, ok := groups[key]
			if !ok {
				g = &acc{name: it.ItemName, qty: decimal.Zero, price: price}
				groups[key] = g
				keys = append(keys, key)
			}
			g.qty = g.qty.Add(dec(it.Quantity))
		}
	}

	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		lines = append(lines, Line{
			Name:      g.name,
			Quantity:  g.qty.InexactFloat64(),
			UnitPrice: money(g.price),
			Total:     money(g.qty.Mul(g.price)),
		})
	}
	return lines
}

// Input is everything a bill depends on.
type Input struct {
	Orders     []entity.Order
	Prices     PriceLookup
	Discount   float64
	PriorPaid  float64
	NewPaid    float64
	Received   float64
	SplitCount int
}

// Summary is the full bill view of a table.
type Summary struct {
	Lines          []Line  `json:"lines"`
	BeforeDiscount float64 `json:"before_discount"`
	Discount       float64 `json:"discount"`
	AfterDiscount  float64 `json:"after_discount"`
	Paid           float64 `json:"paid"`
	Remaining      float64 `json:"remaining"`
	Received       float64 `json:"received"`
	Change         float64 `json:"change"`
	SplitCount     int     `json:"split_count"`
	PerSplit       float64 `json:"per_split"`
	Sufficient     bool    `json:"sufficient"`
	Partial        bool    `json:"partial"`
}

// Calculate produces the bill. A discount outside [0, total] or a negative
// amount is rejected; SplitCount 0 is treated as 1.
func Calculate(in Input) (*Summary, error) {
	if in.Discount < 0 || in.PriorPaid < 0 || in.NewPaid < 0 || in.Received < 0 {
		return nil, fmt.Errorf("amounts must not be negative")
	}
	if in.SplitCount == 0 {
		in.SplitCount = 1
	}

	before := TableTotalBeforeDiscount(in.Orders, in.Prices)
	if in.Discount > before {
		return nil, fmt.Errorf("discount %.2f exceeds total %.2f", in.Discount, before)
	}
	after := AfterDiscount(before, in.Discount)
	remaining := Remaining(after, in.PriorPaid, in.NewPaid)
	perSplit, err := PerSplit(remaining, in.SplitCount)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Lines:          Lines(in.Orders, in.Prices),
		BeforeDiscount: before,
		Discount:       money(dec(in.Discount)),
		AfterDiscount:  after,
		Paid:           money(dec(in.PriorPaid).Add(dec(in.NewPaid))),
		Remaining:      remaining,
		Received:       money(dec(in.Received)),
		Change:         Change(in.Received, remaining),
		SplitCount:     in.SplitCount,
		PerSplit:       perSplit,
		Sufficient:     IsSufficientPayment(in.Received, remaining),
		Partial:        IsPartialPayment(in.PriorPaid, in.NewPaid, after),
	}, nil
}
