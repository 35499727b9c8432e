package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregate(id string, active bool, opening Quantity) DistributorAggregate {
	return DistributorAggregate{DistributorID: id, Active: active, OpeningStock: opening}
}

func TestEstimateProportionalCascade(t *testing.T) {
	tests := []struct {
		name         string
		aggregates   []DistributorAggregate
		target       Quantity
		wantVolumes  []int64
		wantValues   []string
		wantIDs      []string
		currentTotal Quantity
	}{
		{
			name: "largest remainder",
			aggregates: []DistributorAggregate{
				aggregate("D3", true, MustQuantity(20, "2")),
				aggregate("D1", true, MustQuantity(50, "5")),
				aggregate("D2", true, MustQuantity(30, "3")),
			},
			target:       MustQuantity(7, "1"),
			wantIDs:      []string{"D1", "D2", "D3"},
			wantVolumes:  []int64{4, 2, 1},
			wantValues:   []string{"0.5", "0.3", "0.2"},
			currentTotal: MustQuantity(100, "10"),
		},
		{
			name: "equal weights tie to the first",
			aggregates: []DistributorAggregate{
				aggregate("D1", true, MustQuantity(1, "1")),
				aggregate("D2", true, MustQuantity(1, "1")),
				aggregate("D3", true, MustQuantity(1, "1")),
			},
			target:       MustQuantity(10, "1"),
			wantIDs:      []string{"D1", "D2", "D3"},
			wantVolumes:  []int64{4, 3, 3},
			wantValues:   []string{"0.34", "0.33", "0.33"},
			currentTotal: MustQuantity(3, "3"),
		},
		{
			name: "all zero splits equally",
			aggregates: []DistributorAggregate{
				aggregate("D1", true, Quantity{}),
				aggregate("D2", true, Quantity{}),
			},
			target:      MustQuantity(5, "3"),
			wantIDs:     []string{"D1", "D2"},
			wantVolumes: []int64{3, 2},
			wantValues:  []string{"1.5", "1.5"},
		},
		{
			name: "inactive distributors are left out",
			aggregates: []DistributorAggregate{
				aggregate("D1", true, MustQuantity(10, "1")),
				aggregate("D2", false, MustQuantity(90, "9")),
			},
			target:       MustQuantity(50, "5"),
			wantIDs:      []string{"D1"},
			wantVolumes:  []int64{50},
			wantValues:   []string{"5"},
			currentTotal: MustQuantity(10, "1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := EstimateProportionalCascade(EstimateOpeningStock, tt.aggregates, tt.target)
			require.NoError(t, err)

			assert.False(t, est.Authoritative)
			assertQuantity(t, tt.currentTotal, est.CurrentTotal)
			require.Len(t, est.Distributors, len(tt.wantIDs))

			var volume int64
			value := decimal.Zero
			for i, d := range est.Distributors {
				assert.Equal(t, tt.wantIDs[i], d.DistributorID)
				assert.Equal(t, tt.wantVolumes[i], d.Estimated.Volume, d.DistributorID)
				assert.Truef(t, decimal.RequireFromString(tt.wantValues[i]).Equal(d.Estimated.Value),
					"%s: want %s, got %s", d.DistributorID, tt.wantValues[i], d.Estimated.Value)
				volume += d.Estimated.Volume
				value = value.Add(d.Estimated.Value)
			}
			assert.Equal(t, tt.target.Volume, volume)
			assert.True(t, tt.target.Value.Equal(value))
		})
	}
}

func TestEstimateProportionalCascadeRejects(t *testing.T) {
	_, err := EstimateProportionalCascade("balance", nil, MustQuantity(1, "1"))
	requireCode(t, err, CodeUnknownEstimateField)

	_, err = EstimateProportionalCascade(EstimateLiquidation, nil, Quantity{Volume: -1})
	requireCode(t, err, CodeNegativeQuantity)
}

func TestEstimateUsesTotalLiquidation(t *testing.T) {
	aggs := []DistributorAggregate{
		{DistributorID: "D1", Active: true, TotalLiquidation: MustQuantity(30, "3")},
		{DistributorID: "D2", Active: true, TotalLiquidation: MustQuantity(10, "1")},
	}

	est, err := EstimateProportionalCascade(EstimateLiquidation, aggs, MustQuantity(8, "4"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), est.Distributors[0].Estimated.Volume)
	assert.Equal(t, int64(2), est.Distributors[1].Estimated.Volume)
	assertQuantity(t, MustQuantity(40, "4"), est.CurrentTotal)
}
