package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"talent_intake_backend/internal/leads/transport"
	"talent_intake_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Applications"

var exportHeader = []string{
	"id", "child_name", "gender", "age", "first_name", "last_name",
	"email", "phone", "post_code", "status", "image_url", "created_at",
}

// Export renders the same listing as List into an XLSX workbook and returns
// the suggested filename with the file bytes.
func (s *Service) Export(ctx context.Context, q transport.ListLeadsQuery) (string, []byte, error) {
	params, err := parseListParams(q)
	if err != nil {
		return "", nil, err
	}

	leads, err := s.repo.List(ctx, params)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), exportSheet); err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to build export", err)
	}
	header := exportHeader
	if err := xl.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to build export", err)
	}

	for i, lead := range leads {
		record := []string{
			lead.ID.String(),
			lead.ChildName,
			lead.Gender,
			strconv.Itoa(lead.Age),
			lead.FirstName,
			lead.LastName,
			lead.Email,
			lead.Phone,
			lead.PostCode,
			string(lead.Status),
			lead.ImageURL,
			lead.CreatedAt.UTC().Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(exportSheet, cell, &record); err != nil {
			return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to build export", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to write export", err)
	}
	return exportFilename(q, s.now()), buf.Bytes(), nil
}

func exportFilename(q transport.ListLeadsQuery, now time.Time) string {
	from, to := q.From, q.To
	if from == "" {
		from = "all"
	}
	if to == "" {
		to = now.UTC().Format(dateLayout)
	}
	return fmt.Sprintf("applications_%s_%s.xlsx", from, to)
}
