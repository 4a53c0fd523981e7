package patient

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rsmedika/consent-api/internal/model"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
)

var exportHeader = []string{
	"No",
	"MRN",
	"Name",
	"Gender",
	"Age",
	"Diagnosis",
	"Payer",
	"Ward Class",
	"Priority Scale",
	"Scheduled At",
	"Physician",
	"Approval Status",
	"Approved At",
}

// ExportCSV writes the full roster as CSV. Access tokens and signature
// payloads are never part of an export.
func (s *Service) ExportCSV(ctx context.Context) (*bytes.Buffer, error) {
	patients, err := s.exportRows(ctx)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to write csv header: %w", err))
	}
	for i, p := range patients {
		if err := w.Write(exportRow(i+1, p)); err != nil {
			return nil, apperrors.Store(fmt.Errorf("failed to write csv row: %w", err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to flush csv: %w", err))
	}

	return buf, nil
}

// ExportXLSX writes the same roster as a styled XLSX workbook.
func (s *Service) ExportXLSX(ctx context.Context) (*bytes.Buffer, error) {
	patients, err := s.exportRows(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Patients"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to create sheet: %w", err))
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to remove default sheet: %w", err))
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to create header style: %w", err))
	}

	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, apperrors.Store(fmt.Errorf("failed to convert coordinates: %w", err))
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, apperrors.Store(fmt.Errorf("failed to write header cell: %w", err))
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, apperrors.Store(fmt.Errorf("failed to style header cell: %w", err))
		}
	}

	for i, p := range patients {
		for col, value := range exportRow(i+1, p) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, apperrors.Store(fmt.Errorf("failed to convert coordinates: %w", err))
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, apperrors.Store(fmt.Errorf("failed to write cell: %w", err))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to serialize workbook: %w", err))
	}

	return buf, nil
}

func (s *Service) exportRows(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to load roster for export: %w", err))
	}
	if len(patients) == 0 {
		return nil, apperrors.NotFound("no patient data to export")
	}
	return patients, nil
}

func exportRow(no int, p *model.Patient) []string {
	return []string{
		strconv.Itoa(no),
		p.MRN,
		p.Name,
		orDash(p.Gender),
		orDash(p.Age),
		orDash(p.Diagnosis),
		orDash(p.Payer),
		orDash(p.WardClass),
		orDash(p.PriorityScale),
		formatTime(p.ScheduledAt),
		orDash(p.Physician),
		string(p.Status),
		formatTime(p.ApprovedAt),
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
