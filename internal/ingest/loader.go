package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/features"
)

// Canonical column names. Upstream exports disagree on header spelling, so
// headers are normalized and resolved through an alias table before any row is
// read.
const (
	colOrderDate   = "order_date"
	colCustomerID  = "customer_id"
	colFacilityID  = "facility_id"
	colProductID   = "product_id"
	colQuantity    = "quantity"
	colUnitPrice   = "unit_price"
	colCategory    = "category"
	colDescription = "description"
)

var requiredColumns = []string{colOrderDate, colCustomerID, colFacilityID, colProductID, colQuantity}

var headerAliases = map[string]string{
	"orderdate":          colOrderDate,
	"createdate":         colOrderDate,
	"created":            colOrderDate,
	"date":               colOrderDate,
	"customerid":         colCustomerID,
	"customer":           colCustomerID,
	"customernumber":     colCustomerID,
	"facilityid":         colFacilityID,
	"facility":           colFacilityID,
	"location":           colFacilityID,
	"locationid":         colFacilityID,
	"productid":          colProductID,
	"product":            colProductID,
	"sku":                colProductID,
	"itemnumber":         colProductID,
	"quantity":           colQuantity,
	"qty":                colQuantity,
	"orderedquantity":    colQuantity,
	"price":              colUnitPrice,
	"unitprice":          colUnitPrice,
	"category":           colCategory,
	"productcategory":    colCategory,
	"description":        colDescription,
	"productdescription": colDescription,
	"productname":        colDescription,
}

// normalizeHeader collapses case, spaces and underscores so "Create Date",
// "create_date" and "CreateDate" all resolve to the same alias.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	h = strings.ReplaceAll(h, "-", "")
	return h
}

// ParseOrders reads an order CSV into order records. Missing required columns
// and unparsable dates or quantities are fatal; ingestion never persists a
// partially understood file.
func ParseOrders(r io.Reader) ([]domain.OrderRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		if canonical, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv missing required columns: %s", strings.Join(missing, ", "))
	}

	var records []domain.OrderRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		record, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(row []string, columns map[string]int) (domain.OrderRecord, error) {
	field := func(col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	orderDate, err := features.ParseOrderDate(field(colOrderDate))
	if err != nil {
		return domain.OrderRecord{}, err
	}

	quantityRaw := field(colQuantity)
	quantity, err := strconv.ParseFloat(quantityRaw, 64)
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("invalid quantity %q", quantityRaw)
	}

	record := domain.OrderRecord{
		OrderDate:   orderDate,
		CustomerID:  field(colCustomerID),
		FacilityID:  field(colFacilityID),
		ProductID:   field(colProductID),
		Quantity:    quantity,
		Category:    field(colCategory),
		Description: field(colDescription),
	}

	if record.CustomerID == "" || record.FacilityID == "" || record.ProductID == "" {
		return domain.OrderRecord{}, fmt.Errorf("missing required identifier fields")
	}

	if priceRaw := field(colUnitPrice); priceRaw != "" {
		price, err := strconv.ParseFloat(strings.TrimPrefix(priceRaw, "$"), 64)
		if err != nil {
			return domain.OrderRecord{}, fmt.Errorf("invalid unit price %q", priceRaw)
		}
		record.UnitPrice = price
	}

	return record, nil
}
