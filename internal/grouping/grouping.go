// Package grouping partitions snapshot rows by supplier and attaches the
// replenishment recommendation to every item.
package grouping

import (
	"strings"

	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/model"
	"github.com/company-k/purchasing-cli/internal/replenish"
	"github.com/company-k/purchasing-cli/internal/snapshot"
)

// BySupplier groups rows by exact supplier name in first-seen order. Rows
// missing any of snapshot date, supplier, item code or item name are dropped
// silently; a malformed snapshot date on a surviving row is a hard failure.
func BySupplier(rows []snapshot.Row) ([]model.SupplierGroup, error) {
	var groups []model.SupplierGroup
	index := make(map[string]int)
	dropped := 0

	for _, row := range rows {
		snapshotDate := strings.TrimSpace(fieldOr(row, "snapshotdate"))
		supplier := strings.TrimSpace(fieldOr(row, "suppliername", "supplier"))
		itemCode, codeOK := row.Field("itemcode")
		itemName := fieldOr(row, "itemname")

		if snapshotDate == "" || supplier == "" || !codeOK || itemName == "" {
			dropped++
			continue
		}

		currentStock := row.FloatField("currentstock")
		wksToOOS := row.FloatField("wkstooos")

		rec, err := replenish.Recommend(snapshotDate, wksToOOS, currentStock)
		if err != nil {
			return nil, err
		}

		riskLevel := strings.TrimSpace(fieldOr(row, "risklevel"))
		if riskLevel == "" {
			riskLevel = "N/A"
		}

		item := model.ItemRecord{
			ItemCode:                        itemCode,
			ItemName:                        itemName,
			RiskLevel:                       riskLevel,
			CurrentStock:                    currentStock,
			WksToOOS:                        wksToOOS,
			SuggestedQuantity:               rec.SuggestedQuantity,
			RecommendedLatestPODate:         rec.LatestPODate,
			RecommendedLatestDeliveryDate:   rec.LatestDeliveryDate,
			RecommendedLatestPOTiming:       rec.POTiming,
			RecommendedLatestDeliveryTiming: rec.DeliveryTiming,
		}

		i, seen := index[supplier]
		if !seen {
			i = len(groups)
			index[supplier] = i
			groups = append(groups, model.SupplierGroup{
				SnapshotDate: snapshotDate,
				Supplier:     supplier,
			})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	if dropped > 0 {
		zap.L().Debug("grouping: dropped rows missing mandatory fields", zap.Int("dropped", dropped))
	}

	return groups, nil
}

func fieldOr(row snapshot.Row, names ...string) string {
	for _, name := range names {
		if v, ok := row.Field(name); ok && v != "" {
			return v
		}
	}
	return ""
}
