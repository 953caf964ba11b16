package service

import (
	"context"

	"github.com/shopspring/decimal"

	"tutupkas/backend/internal/domain"
	"tutupkas/backend/internal/store"
)

var (
	varianceNormalLimit  = decimal.NewFromInt(1)
	varianceWarningLimit = decimal.NewFromInt(5)
	hundred              = decimal.NewFromInt(100)
)

// Reconcile computes the expected drawer cash from the day's aggregates.
// Returns are settled in cash, so both return totals move the drawer.
func Reconcile(in domain.ReconcileInput) domain.ReconciliationSummary {
	cashSales := in.Sales.ByPaymentMethod[domain.PaymentMethodCash]
	cashPurchase := in.Purchases.ByPaymentMethod[domain.PaymentMethodCash]

	payments := make(map[string]int64, len(in.Sales.ByPaymentMethod))
	for method, amount := range in.Sales.ByPaymentMethod {
		payments[method] = amount
	}

	return domain.ReconciliationSummary{
		TotalSales:          in.Sales.Total,
		TotalDiscount:       in.Sales.Discount,
		TotalTax:            in.Sales.Tax,
		SalesCount:          in.Sales.Count,
		Payments:            payments,
		CashSales:           cashSales,
		TotalSalesReturn:    in.SalesReturnTotal,
		TotalPurchase:       in.Purchases.Total,
		CashPurchase:        cashPurchase,
		TotalPurchaseReturn: in.PurchaseReturnTotal,
		ShiftCount:          in.Shifts.ClosedCount,
		InitialCashSum:      in.Shifts.InitialCashSum,
		ExpectedCash:        in.Shifts.InitialCashSum + cashSales - in.SalesReturnTotal - cashPurchase + in.PurchaseReturnTotal,
	}
}

// classifyVariance returns the variance as a percentage of expected cash,
// rounded to two places, and its class. With nothing expected the percent
// is empty and any difference at all is critical.
func classifyVariance(variance int64, expected int64) (string, string) {
	if expected == 0 {
		if variance == 0 {
			return "", domain.VarianceClassNormal
		}
		return "", domain.VarianceClassCritical
	}

	pct := decimal.NewFromInt(variance).
		Div(decimal.NewFromInt(expected)).
		Mul(hundred).
		Round(2)

	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(varianceNormalLimit):
		return pct.StringFixed(2), domain.VarianceClassNormal
	case abs.LessThanOrEqual(varianceWarningLimit):
		return pct.StringFixed(2), domain.VarianceClassWarning
	default:
		return pct.StringFixed(2), domain.VarianceClassCritical
	}
}

// gatherReconcileInput reads every aggregate for one station (or the whole
// store when stationID is empty) over r.
func gatherReconcileInput(ctx context.Context, repo store.Repository, storeID string, stationID string, r domain.DayRange) (domain.ReconcileInput, error) {
	var (
		in  domain.ReconcileInput
		err error
	)

	if in.Sales, err = repo.AggregateSales(ctx, storeID, stationID, r); err != nil {
		return domain.ReconcileInput{}, err
	}
	if in.Purchases, err = repo.AggregatePurchases(ctx, storeID, stationID, r); err != nil {
		return domain.ReconcileInput{}, err
	}
	if in.SalesReturnTotal, err = repo.SumSalesReturns(ctx, storeID, stationID, r); err != nil {
		return domain.ReconcileInput{}, err
	}
	if in.PurchaseReturnTotal, err = repo.SumPurchaseReturns(ctx, storeID, stationID, r); err != nil {
		return domain.ReconcileInput{}, err
	}
	if in.Shifts, err = repo.AggregateShifts(ctx, storeID, stationID, r); err != nil {
		return domain.ReconcileInput{}, err
	}

	return in, nil
}
