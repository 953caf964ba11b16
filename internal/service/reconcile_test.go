package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tutupkas/backend/internal/domain"
)

func TestReconcileExpectedCashFormula(t *testing.T) {
	sum := Reconcile(domain.ReconcileInput{
		Sales: domain.FlowAggregate{
			Total:           580000,
			Discount:        5000,
			Tax:             12000,
			Count:           9,
			ByPaymentMethod: map[string]int64{"cash": 500000, "qris": 80000},
		},
		Purchases: domain.FlowAggregate{
			Total:           180000,
			ByPaymentMethod: map[string]int64{"cash": 150000, "transfer": 30000},
		},
		SalesReturnTotal:    20000,
		PurchaseReturnTotal: 10000,
		Shifts:              domain.ShiftAggregate{InitialCashSum: 100000, OpenCount: 1, ClosedCount: 2},
	})

	assert.Equal(t, int64(440000), sum.ExpectedCash)
	assert.Equal(t, int64(500000), sum.CashSales)
	assert.Equal(t, int64(150000), sum.CashPurchase)
	assert.Equal(t, int64(580000), sum.TotalSales)
	assert.Equal(t, int64(180000), sum.TotalPurchase)
	assert.Equal(t, int64(5000), sum.TotalDiscount)
	assert.Equal(t, int64(12000), sum.TotalTax)
	assert.Equal(t, int64(9), sum.SalesCount)
	assert.Equal(t, int64(2), sum.ShiftCount, "only closed shifts are counted")
	assert.Equal(t, int64(100000), sum.InitialCashSum)
	assert.Equal(t, map[string]int64{"cash": 500000, "qris": 80000}, sum.Payments)
}

func TestReconcileWithoutCashPayments(t *testing.T) {
	sum := Reconcile(domain.ReconcileInput{
		Sales:  domain.FlowAggregate{Total: 70000, ByPaymentMethod: map[string]int64{"qris": 70000}},
		Shifts: domain.ShiftAggregate{InitialCashSum: 50000, ClosedCount: 1},
	})

	assert.Equal(t, int64(50000), sum.ExpectedCash)
	assert.Equal(t, int64(0), sum.CashSales)
	assert.Empty(t, sum.Payments["cash"])
}

func TestReconcileCopiesPayments(t *testing.T) {
	in := domain.ReconcileInput{Sales: domain.FlowAggregate{ByPaymentMethod: map[string]int64{"cash": 10}}}
	sum := Reconcile(in)
	sum.Payments["cash"] = 99

	assert.Equal(t, int64(10), in.Sales.ByPaymentMethod["cash"])
}

func TestClassifyVariance(t *testing.T) {
	cases := []struct {
		name     string
		variance int64
		expected int64
		pct      string
		class    string
	}{
		{"balanced", 0, 150000, "0.00", domain.VarianceClassNormal},
		{"one percent over", 1000, 100000, "1.00", domain.VarianceClassNormal},
		{"shortage within five percent", -10000, 440000, "-2.27", domain.VarianceClassWarning},
		{"five percent short", -5000, 100000, "-5.00", domain.VarianceClassWarning},
		{"six percent over", 6000, 100000, "6.00", domain.VarianceClassCritical},
		{"nothing expected nothing counted", 0, 0, "", domain.VarianceClassNormal},
		{"nothing expected but cash found", 500, 0, "", domain.VarianceClassCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pct, class := classifyVariance(tc.variance, tc.expected)
			assert.Equal(t, tc.pct, pct)
			assert.Equal(t, tc.class, class)
		})
	}
}
