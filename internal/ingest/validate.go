package ingest

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/domain"
)

// ValidationReport summarizes one ingested batch.
type ValidationReport struct {
	RowCount           int       `json:"row_count"`
	AcceptedCount      int       `json:"accepted_count"`
	NonPositiveDropped int       `json:"non_positive_dropped"`
	DistinctProducts   int       `json:"distinct_products"`
	DistinctCustomers  int       `json:"distinct_customers"`
	EarliestOrderDate  time.Time `json:"earliest_order_date"`
	LatestOrderDate    time.Time `json:"latest_order_date"`
}

// Validate screens parsed records before persistence. Rows with non-positive
// quantities are dropped and counted; structurally malformed rows never reach
// this stage.
func Validate(records []domain.OrderRecord) ([]domain.OrderRecord, ValidationReport) {
	report := ValidationReport{RowCount: len(records)}
	if len(records) == 0 {
		return nil, report
	}

	accepted := make([]domain.OrderRecord, 0, len(records))
	products := make(map[string]struct{})
	customers := make(map[string]struct{})

	for _, r := range records {
		if r.Quantity <= 0 {
			report.NonPositiveDropped++
			continue
		}

		if report.AcceptedCount == 0 {
			report.EarliestOrderDate = r.OrderDate
			report.LatestOrderDate = r.OrderDate
		} else {
			if r.OrderDate.Before(report.EarliestOrderDate) {
				report.EarliestOrderDate = r.OrderDate
			}
			if r.OrderDate.After(report.LatestOrderDate) {
				report.LatestOrderDate = r.OrderDate
			}
		}

		products[r.ProductID] = struct{}{}
		customers[r.CustomerID] = struct{}{}
		accepted = append(accepted, r)
		report.AcceptedCount++
	}

	report.DistinctProducts = len(products)
	report.DistinctCustomers = len(customers)

	if report.NonPositiveDropped > 0 {
		log.Warn().
			Int("dropped", report.NonPositiveDropped).
			Int("total", report.RowCount).
			Msg("ingest: dropped rows with non-positive quantities")
	}
	return accepted, report
}
