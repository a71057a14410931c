package model

// PurchaseRequestDraft is the structured intermediate produced by the
// PR-Draft stage and consumed only by the PR-Document stage.
type PurchaseRequestDraft struct {
	DocumentType     string            `json:"document_type"`
	Supplier         string            `json:"supplier"`
	SnapshotDate     string            `json:"snapshot_date"`
	RiskLevel        string            `json:"risk_level,omitempty"`
	OverallContext   *RequestContext   `json:"overall_context,omitempty"`
	PurchaseRequests []SupplierRequest `json:"purchase_requests"`
}

// RequestContext summarizes the supplier situation for the requisition.
type RequestContext struct {
	Summary  string   `json:"summary"`
	KeyRisks []string `json:"key_risks"`
}

// SupplierRequest groups the requested items of one supplier.
type SupplierRequest struct {
	SupplierName         string        `json:"supplier_name"`
	SupplierLevelSummary string        `json:"supplier_level_summary"`
	Items                []RequestItem `json:"items"`
}

// RequestItem is one line of a purchase requisition.
type RequestItem struct {
	ItemCode               string          `json:"item_code"`
	ItemName               string          `json:"item_name"`
	CurrentStock           *float64        `json:"current_stock"`
	WksToOOS               *float64        `json:"wks_to_oos"`
	RiskLevel              string          `json:"risk_level"`
	SuggestedQuantity      *int            `json:"suggested_quantity"`
	Justification          []string        `json:"justification"`
	RecommendedAction      string          `json:"recommended_action"`
	RecommendedTimeline    RequestTimeline `json:"recommended_timeline"`
	CriticalChecksForBuyer []string        `json:"critical_checks_for_buyer"`
}

// RequestTimeline carries the per-item procurement dates.
type RequestTimeline struct {
	LatestPOIssueDate string `json:"latest_po_issue_date"`
	TargetReceiptDate string `json:"target_receipt_date"`
	Notes             string `json:"notes"`
}

// MinimalDraft is the structurally valid fallback used when the PR-Draft
// stage output cannot be parsed. The PR-Document stage tolerates its empty
// item list.
func MinimalDraft(snapshotDate, supplier string) PurchaseRequestDraft {
	return PurchaseRequestDraft{
		DocumentType:     "purchase_request",
		Supplier:         supplier,
		SnapshotDate:     snapshotDate,
		PurchaseRequests: []SupplierRequest{},
	}
}
