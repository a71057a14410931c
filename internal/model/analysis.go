package model

// CriticalQuestion is one open operational question raised by the Analysis
// stage. Target is "general" or an item code; Reason is one of
// "supplier_history", "item_history", "generic".
type CriticalQuestion struct {
	Target   string `json:"target"`
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

// TimelineItem is one per-item entry of the replenishment timeline. It
// mirrors ItemRecord plus the group context and an optional history note.
type TimelineItem struct {
	ItemCode                        string   `json:"item_code"`
	ItemName                        string   `json:"item_name"`
	Supplier                        string   `json:"supplier"`
	RiskLevel                       string   `json:"risk_level"`
	CurrentStock                    *float64 `json:"current_stock"`
	WksToOOS                        *float64 `json:"wks_to_oos"`
	SuggestedQuantity               *int     `json:"suggested_quantity"`
	SnapshotDate                    string   `json:"snapshot_date"`
	RecommendedLatestPOTiming       string   `json:"recommended_latest_po_timing"`
	RecommendedLatestDeliveryTiming string   `json:"recommended_latest_delivery_timing"`
	RecommendedLatestPODate         string   `json:"recommended_latest_po_date"`
	RecommendedLatestDeliveryDate   string   `json:"recommended_latest_delivery_date"`
	Notes                           string   `json:"notes,omitempty"`
}

// AnalysisOutput is the structured result of the Analysis stage. It is read
// by the Report, PR-Draft and Email stages and never mutated.
type AnalysisOutput struct {
	PurchasingReportMarkdown string             `json:"purchasing_report_markdown"`
	CriticalQuestions        []CriticalQuestion `json:"critical_questions"`
	ReplenishmentTimeline    []TimelineItem     `json:"replenishment_timeline"`
}

// TimelineFromGroup builds timeline entries straight from the grouped input
// items, carrying every field through unchanged. Used as the safe fallback
// when a generation response cannot be parsed.
func TimelineFromGroup(group SupplierGroup) []TimelineItem {
	items := make([]TimelineItem, 0, len(group.Items))
	for _, it := range group.Items {
		items = append(items, TimelineItem{
			ItemCode:                        it.ItemCode,
			ItemName:                        it.ItemName,
			Supplier:                        group.Supplier,
			RiskLevel:                       it.RiskLevel,
			CurrentStock:                    it.CurrentStock,
			WksToOOS:                        it.WksToOOS,
			SuggestedQuantity:               it.SuggestedQuantity,
			SnapshotDate:                    group.SnapshotDate,
			RecommendedLatestPOTiming:       it.RecommendedLatestPOTiming,
			RecommendedLatestDeliveryTiming: it.RecommendedLatestDeliveryTiming,
			RecommendedLatestPODate:         it.RecommendedLatestPODate,
			RecommendedLatestDeliveryDate:   it.RecommendedLatestDeliveryDate,
		})
	}
	return items
}
