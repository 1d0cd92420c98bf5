package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demandcast/backend-go/internal/domain"
)

func orderRow(date time.Time, customerID, productID string, qty float64) domain.OrderRecord {
	return domain.OrderRecord{
		OrderDate:  date,
		CustomerID: customerID,
		FacilityID: "fac1",
		ProductID:  productID,
		Quantity:   qty,
	}
}

func TestValidateDropsNonPositiveQuantities(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	accepted, report := Validate([]domain.OrderRecord{
		orderRow(d1, "cust1", "p1", 10),
		orderRow(d2, "cust1", "p2", -3),
		orderRow(d2, "cust2", "p1", 0),
		orderRow(d2, "cust2", "p2", 5),
	})

	assert.Equal(t, 4, report.RowCount)
	assert.Equal(t, 2, report.AcceptedCount)
	assert.Equal(t, 2, report.NonPositiveDropped)
	assert.Equal(t, 2, report.DistinctProducts)
	assert.Equal(t, 2, report.DistinctCustomers)
	assert.Equal(t, d1, report.EarliestOrderDate)
	assert.Equal(t, d2, report.LatestOrderDate)
	require.Len(t, accepted, 2)
}

func TestValidateEmptyBatch(t *testing.T) {
	accepted, report := Validate(nil)
	assert.Nil(t, accepted)
	assert.Equal(t, 0, report.RowCount)
	assert.Equal(t, 0, report.AcceptedCount)
}

func TestDeriveCatalog(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	records := []domain.OrderRecord{
		{OrderDate: d1, CustomerID: "cust1", FacilityID: "fac1", ProductID: "p1", Quantity: 10, Category: "beverages", Description: "Cold Brew"},
		{OrderDate: d2, CustomerID: "cust1", FacilityID: "fac1", ProductID: "p1", Quantity: 12, Category: "beverages", Description: "Cold Brew"},
		{OrderDate: d1, CustomerID: "cust1", FacilityID: "fac2", ProductID: "p1", Quantity: 5, Category: "beverages", Description: "Cold Brew"},
	}

	products, relations := deriveCatalog(records)
	require.Len(t, products, 1)
	assert.Equal(t, "Cold Brew", products[0].ProductName)
	assert.Equal(t, "beverages", products[0].Category)

	require.Len(t, relations, 2)
	for _, rel := range relations {
		if rel.FacilityID == "fac1" {
			assert.Equal(t, 2, rel.OrderCount)
			assert.Equal(t, d1, rel.FirstOrderDate)
			assert.Equal(t, d2, rel.LastOrderDate)
		} else {
			assert.Equal(t, 1, rel.OrderCount)
		}
	}
}
