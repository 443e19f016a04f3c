/**
 * @description
 * This file builds the XLSX export of the sales-detail view. The workbook
 * contains a single sheet with one header row followed by one row per
 * commission, using the same columns the paginated API returns.
 */

package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/shoplane/affiliate-service/internal/domain"
)

const salesSheetName = "Sales"

var salesHeaders = []string{
	"Commission ID",
	"Customer",
	"Store",
	"Plan",
	"Gross Amount",
	"Commission",
	"Payment Type",
	"Status",
	"Subscription",
	"Subscription Expiry",
	"Created At",
}

// WriteSalesDetail renders the given sales rows as an XLSX workbook and
// streams it to w. Monetary cells are written as numbers so spreadsheet
// tools can sum them directly.
func WriteSalesDetail(w io.Writer, rows []domain.SalesDetailRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(salesSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for i, header := range salesHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(salesSheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for rowIdx, row := range rows {
		gross, _ := row.GrossAmount.Float64()
		commission, _ := row.CommissionAmount.Float64()

		expiry := ""
		if row.SubscriptionExpiry != nil {
			expiry = row.SubscriptionExpiry.Format("2006-01-02")
		}

		values := []interface{}{
			row.CommissionID.String(),
			row.CustomerName,
			row.StoreName,
			string(row.PlanTier),
			gross,
			commission,
			row.PaymentType,
			row.Status,
			row.SubscriptionLabel,
			expiry,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to resolve data cell: %w", err)
			}
			if err := f.SetCellValue(salesSheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write data cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
