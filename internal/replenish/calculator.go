// Package replenish computes recommended purchase-order and delivery dates
// plus suggested order quantities from a stock snapshot. All functions are
// pure: identical inputs always produce identical outputs.
package replenish

import (
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Lead-time constants in weeks. A purchase order issued today arrives after
// the import lead time plus internal handling.
const (
	ImportLeadWeeks   = 16
	InternalLeadWeeks = 2
	TotalLeadWeeks    = ImportLeadWeeks + InternalLeadWeeks

	// CoverageWeeksAfterDelivery is how many weeks of demand a delivery
	// should cover once it lands.
	CoverageWeeksAfterDelivery = 26
)

const dateLayout = "2006-01-02"

// Recommendation holds the derived replenishment fields for one item.
type Recommendation struct {
	LatestPODate       string
	LatestDeliveryDate string
	POTiming           string
	DeliveryTiming     string
	SuggestedQuantity  *int
}

// Recommend derives the replenishment recommendation for one item. A
// malformed snapshot date is a hard validation failure; a missing or
// non-positive wks-to-oos is substituted with the total lead time, treating
// the item as already critical.
func Recommend(snapshotDate string, wksToOOS, currentStock *float64) (Recommendation, error) {
	snapshot, err := time.Parse(dateLayout, snapshotDate)
	if err != nil {
		return Recommendation{}, eris.Wrapf(err, "replenish: invalid snapshot date %q", snapshotDate)
	}

	effective := float64(TotalLeadWeeks)
	if wksToOOS != nil && *wksToOOS > 0 {
		effective = *wksToOOS
	}

	// The last day current stock can carry the item is the latest delivery
	// date; stepping the lead time back from it gives the PO deadline, which
	// can never fall before the snapshot itself.
	latestDelivery := snapshot.AddDate(0, 0, int(effective*7))
	latestPO := latestDelivery.AddDate(0, 0, -TotalLeadWeeks*7)
	if latestPO.Before(snapshot) {
		latestPO = snapshot
	}

	return Recommendation{
		LatestPODate:       latestPO.Format(dateLayout),
		LatestDeliveryDate: latestDelivery.Format(dateLayout),
		POTiming:           TimingLabel(weeksBetween(snapshot, latestPO)),
		DeliveryTiming:     TimingLabel(weeksBetween(snapshot, latestDelivery)),
		SuggestedQuantity:  SuggestedQuantity(currentStock, wksToOOS),
	}, nil
}

// TimingLabel maps a week distance onto the human urgency buckets used in
// reports. Upper bounds are inclusive.
func TimingLabel(weeksDiff float64) string {
	switch {
	case weeksDiff <= 0.5:
		return "immediately"
	case weeksDiff <= 1:
		return "within 1 week"
	case weeksDiff <= 2:
		return "within 2 weeks"
	case weeksDiff <= 4:
		return "within 2–4 weeks"
	case weeksDiff <= 8:
		return "within 4–8 weeks"
	default:
		return fmt.Sprintf("within %d weeks", int(math.Round(weeksDiff)))
	}
}

// SuggestedQuantity sizes an order to cover CoverageWeeksAfterDelivery weeks
// of demand at the observed consumption rate, rounding partial units up.
// Returns nil when stock or wks-to-oos is missing or non-positive.
func SuggestedQuantity(currentStock, wksToOOS *float64) *int {
	if currentStock == nil || wksToOOS == nil || *currentStock <= 0 || *wksToOOS <= 0 {
		return nil
	}

	stock := decimal.NewFromFloat(*currentStock)
	weeklyDemand := stock.Div(decimal.NewFromFloat(*wksToOOS))
	target := weeklyDemand.Mul(decimal.NewFromInt(CoverageWeeksAfterDelivery))

	qty := 0
	if target.Sign() > 0 {
		qty = int(target.Ceil().IntPart())
	}
	return &qty
}

func weeksBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / (7 * 24)
}
