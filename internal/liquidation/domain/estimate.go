package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// EstimateField names the portfolio figure a proportional estimate redistributes.
type EstimateField string

const (
	EstimateOpeningStock EstimateField = "opening_stock"
	EstimateYTDNetSales  EstimateField = "ytd_net_sales"
	EstimateLiquidation  EstimateField = "liquidation"
)

// DistributorEstimate is one distributor's share of a proportional estimate.
type DistributorEstimate struct {
	DistributorID string   `json:"distributor_id"`
	Current       Quantity `json:"current"`
	Estimated     Quantity `json:"estimated"`
}

// ProportionalEstimate is a what-if view. It is never written to the ledger.
type ProportionalEstimate struct {
	Field         EstimateField         `json:"field"`
	CurrentTotal  Quantity              `json:"current_total"`
	Target        Quantity              `json:"target"`
	Distributors  []DistributorEstimate `json:"distributors"`
	Authoritative bool                  `json:"authoritative"`
}

func (f EstimateField) pick(agg DistributorAggregate) (Quantity, bool) {
	switch f {
	case EstimateOpeningStock:
		return agg.OpeningStock, true
	case EstimateYTDNetSales:
		return agg.YTDNetSales, true
	case EstimateLiquidation:
		return agg.TotalLiquidation, true
	}
	return Quantity{}, false
}

// EstimateProportionalCascade spreads a new portfolio-level target over the
// active distributors by their current share of field. When every share is
// zero the target is split equally. Volumes are apportioned by largest
// remainder and sum exactly to the target; values are rounded to ValueScale
// with the rounding residue assigned to the largest share.
func EstimateProportionalCascade(field EstimateField, distributors []DistributorAggregate, target Quantity) (ProportionalEstimate, error) {
	if _, ok := field.pick(DistributorAggregate{}); !ok {
		return ProportionalEstimate{}, NewValidationError(CodeUnknownEstimateField, "field",
			"field must be opening_stock, ytd_net_sales or liquidation")
	}
	if err := target.Validate("target"); err != nil {
		return ProportionalEstimate{}, err
	}

	active := make([]DistributorAggregate, 0, len(distributors))
	for _, d := range distributors {
		if d.Active {
			active = append(active, d)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].DistributorID < active[j].DistributorID })

	est := ProportionalEstimate{Field: field, Target: target, Distributors: make([]DistributorEstimate, len(active))}
	if len(active) == 0 {
		return est, nil
	}

	volumeWeights := make([]decimal.Decimal, len(active))
	valueWeights := make([]decimal.Decimal, len(active))
	for i, d := range active {
		current, _ := field.pick(d)
		est.CurrentTotal = est.CurrentTotal.Add(current)
		est.Distributors[i] = DistributorEstimate{DistributorID: d.DistributorID, Current: current}
		volumeWeights[i] = decimal.NewFromInt(current.Volume)
		valueWeights[i] = current.Value
	}

	volumes := apportionVolume(target.Volume, volumeWeights)
	values := apportionValue(target.Value, valueWeights)
	for i := range est.Distributors {
		est.Distributors[i].Estimated = Quantity{Volume: volumes[i], Value: values[i]}
	}
	return est, nil
}

func equalWeightsIfZero(weights []decimal.Decimal) ([]decimal.Decimal, decimal.Decimal) {
	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	if total.IsPositive() {
		return weights, total
	}
	equal := make([]decimal.Decimal, len(weights))
	for i := range equal {
		equal[i] = decimal.NewFromInt(1)
	}
	return equal, decimal.NewFromInt(int64(len(weights)))
}

// apportionVolume is the largest-remainder method. Ties go to the earlier index.
func apportionVolume(target int64, weights []decimal.Decimal) []int64 {
	weights, total := equalWeightsIfZero(weights)
	out := make([]int64, len(weights))
	remainders := make([]decimal.Decimal, len(weights))

	t := decimal.NewFromInt(target)
	var assigned int64
	for i, w := range weights {
		q, r := t.Mul(w).QuoRem(total, 0)
		out[i] = q.IntPart()
		remainders[i] = r
		assigned += out[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})
	for k := int64(0); k < target-assigned; k++ {
		out[order[int(k)%len(order)]]++
	}
	return out
}

func apportionValue(target decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	weights, total := equalWeightsIfZero(weights)
	out := make([]decimal.Decimal, len(weights))

	assigned := decimal.Zero
	largest := 0
	for i, w := range weights {
		out[i] = target.Mul(w).Div(total).Round(ValueScale)
		assigned = assigned.Add(out[i])
		if w.GreaterThan(weights[largest]) {
			largest = i
		}
	}
	if residue := target.Sub(assigned); !residue.IsZero() {
		out[largest] = out[largest].Add(residue)
	}
	return out
}
