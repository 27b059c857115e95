package documents

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

const exportSheet = "Sheet1"

var exportHeadings = []string{"Reference Number", "Version", "Customer", "Status", "Total Price", "Creation Date"}

// ExportXLSX writes the filtered document register as a spreadsheet.
func (s *Service) ExportXLSX(ctx context.Context, kind pricing.Kind, req ListRequest, w io.Writer) error {
	req.PageSize = 0
	rows, _, err := s.List(ctx, kind, req)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, h := range exportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		values := []any{
			row.ReferenceNumber,
			row.LatestVersion,
			row.CustomerName,
			row.LatestVersionStatus.Label(),
			row.TotalPrice.InexactFloat64(),
			row.CreationDate.Format("2006-01-02 15:04:05"),
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write %s register: %w", kind, err)
	}
	return nil
}
