// Package model defines the data types carried through the purchasing pipeline.
package model

// StockRow is one normalized row of a stock-risk snapshot. Rows missing any of
// the four mandatory fields (snapshot date, supplier, item code, item name)
// never become a StockRow.
type StockRow struct {
	ItemCode     string   `json:"item_code"`
	ItemName     string   `json:"item_name"`
	RiskLevel    string   `json:"risk_level"`
	CurrentStock *float64 `json:"current_stock"`
	WksToOOS     *float64 `json:"wks_to_oos"`
	SnapshotDate string   `json:"snapshot_date"`
	Supplier     string   `json:"supplier"`
}

// ItemRecord is a StockRow flattened together with its replenishment
// recommendation. This is the unit carried through grouping and generation.
type ItemRecord struct {
	ItemCode                        string   `json:"item_code"`
	ItemName                        string   `json:"item_name"`
	RiskLevel                       string   `json:"risk_level"`
	CurrentStock                    *float64 `json:"current_stock"`
	WksToOOS                        *float64 `json:"wks_to_oos"`
	SuggestedQuantity               *int     `json:"suggested_quantity"`
	RecommendedLatestPODate         string   `json:"recommended_latest_po_date"`
	RecommendedLatestDeliveryDate   string   `json:"recommended_latest_delivery_date"`
	RecommendedLatestPOTiming       string   `json:"recommended_latest_po_timing"`
	RecommendedLatestDeliveryTiming string   `json:"recommended_latest_delivery_timing"`
}

// SupplierGroup holds all items of one supplier for one snapshot date.
// Items preserve first-seen row order. Groups are never mutated after
// grouping completes.
type SupplierGroup struct {
	SnapshotDate string       `json:"snapshot_date"`
	Supplier     string       `json:"supplier"`
	Items        []ItemRecord `json:"items"`
}

// RiskLevel returns the group-level risk label: the first item's risk level,
// or "N/A" for an empty group.
func (g SupplierGroup) RiskLevel() string {
	if len(g.Items) == 0 {
		return "N/A"
	}
	if g.Items[0].RiskLevel == "" {
		return "N/A"
	}
	return g.Items[0].RiskLevel
}
