package pricing

// Purchase is one line item in a plan.
type Purchase struct {
	Bundle   Bundle
	Qty      int
	Subtotal int // cents
}

// Units is the yield of this line item.
func (p Purchase) Units() int { return p.Bundle.TotalYield() * p.Qty }

// Plan summarizes a purchase plan for a target.
type Plan struct {
	TargetPulls int
	Required    int // units needed for TargetPulls
	Purchases   []Purchase
	TotalCents  int
	TotalYield  int
	Currency    string
}

func newPlan(cat Catalog, pulls int) Plan {
	return Plan{
		TargetPulls: pulls,
		Required:    cat.Token.UnitsForPulls(pulls),
		Currency:    cat.Currency,
	}
}

// add appends a line item. Repeated bundles stay separate lines.
func (p *Plan) add(b Bundle, qty int) {
	sub := b.PriceCents * qty
	p.Purchases = append(p.Purchases, Purchase{Bundle: b, Qty: qty, Subtotal: sub})
	p.TotalCents += sub
	p.TotalYield += b.TotalYield() * qty
}

// Cost returns the total in major units.
func (p Plan) Cost() float64 { return centsToDollars(p.TotalCents) }

// Overshoot is the number of units bought beyond Required.
func (p Plan) Overshoot() int {
	if p.TotalYield <= p.Required {
		return 0
	}
	return p.TotalYield - p.Required
}

// Count returns how many units of the bundle the plan buys across all lines.
func (p Plan) Count(bundleID string) int {
	n := 0
	for _, pu := range p.Purchases {
		if pu.Bundle.ID == bundleID {
			n += pu.Qty
		}
	}
	return n
}
