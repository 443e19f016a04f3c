package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/shoplane/affiliate-service/internal/domain"
)

func TestWriteSalesDetail(t *testing.T) {
	expiry := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := []domain.SalesDetailRow{
		{
			CommissionID:       uuid.New(),
			CustomerName:       "Jane Seller",
			StoreName:          "Jane's Store",
			PlanTier:           domain.PlanTierYearly,
			GrossAmount:        decimal.RequireFromString("1000"),
			CommissionAmount:   decimal.RequireFromString("166.67"),
			PaymentType:        domain.PaymentTypeFirst,
			Status:             domain.CommissionStatusPending,
			SubscriptionLabel:  domain.SubscriptionLabelActive,
			SubscriptionExpiry: &expiry,
			CreatedAt:          time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteSalesDetail(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	header, err := f.GetCellValue(salesSheetName, "A1")
	if err != nil {
		t.Fatalf("failed to read header cell: %v", err)
	}
	if header != "Commission ID" {
		t.Fatalf("unexpected header: %q", header)
	}

	customer, _ := f.GetCellValue(salesSheetName, "B2")
	if customer != "Jane Seller" {
		t.Fatalf("unexpected customer cell: %q", customer)
	}

	commission, _ := f.GetCellValue(salesSheetName, "F2")
	if commission != "166.67" {
		t.Fatalf("unexpected commission cell: %q", commission)
	}

	expiryCell, _ := f.GetCellValue(salesSheetName, "J2")
	if expiryCell != "2025-01-15" {
		t.Fatalf("unexpected expiry cell: %q", expiryCell)
	}
}

func TestWriteSalesDetailEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSalesDetail(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(salesSheetName)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header row only, got %d rows", len(rows))
	}
}
