package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/opengrade/opengrade-api/internal/dto"
	"github.com/opengrade/opengrade-api/internal/repository"
)

// ExportService produces the per-homework grade spreadsheet.
type ExportService interface {
	Rows(ctx context.Context, homework string) ([]dto.ExportRow, error)
	Workbook(ctx context.Context, homework string) ([]byte, error)
}

type exportService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewExportService constructs the export service.
func NewExportService(users repository.UserRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		users:  users,
		logger: logger.With().Str("component", "export_service").Logger(),
	}
}

// Rows collects the graded students for the homework. Students enrolled but
// not yet graded are skipped.
func (s *exportService) Rows(ctx context.Context, homework string) ([]dto.ExportRow, error) {
	users, err := s.users.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ExportRow, 0, len(users))
	for _, user := range users {
		grade, ok := user.GradeFor(homework)
		if !ok || grade == nil {
			continue
		}
		rows = append(rows, dto.ExportRow{Username: user.Username, Grade: *grade})
	}

	return rows, nil
}

// Workbook renders the rows into an xlsx workbook with a "Students" sheet.
func (s *exportService) Workbook(ctx context.Context, homework string) ([]byte, error) {
	rows, err := s.Rows(ctx, homework)
	if err != nil {
		return nil, err
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	const sheet = "Students"
	index, err := workbook.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	workbook.SetActiveSheet(index)
	if err := workbook.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	if err := workbook.SetSheetRow(sheet, "A1", &[]interface{}{"username", "grade"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := workbook.SetSheetRow(sheet, cell, &[]interface{}{row.Username, row.Grade}); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buffer := bytes.Buffer{}
	if err := workbook.Write(&buffer); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	return buffer.Bytes(), nil
}
