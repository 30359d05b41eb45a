package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/opengrade/opengrade-api/internal/models"
)

func TestExportRowsSkipsUngraded(t *testing.T) {
	graded := 92.0
	users := newUserRepoStub(
		ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1", Grade: &graded}}),
		ledgerUser(t, 2, "bob", []models.GradeEntry{{Homework: "hw1"}}),
		ledgerUser(t, 3, "carol", []models.GradeEntry{{Homework: "hw2", Grade: &graded}}),
	)
	svc := NewExportService(users, zerolog.Nop())

	rows, err := svc.Rows(context.Background(), "hw1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "alice", rows[0].Username)
	require.InDelta(t, 92, rows[0].Grade, 0.001)
}

func TestExportWorkbookContainsRows(t *testing.T) {
	grade := 75.0
	users := newUserRepoStub(ledgerUser(t, 1, "alice", []models.GradeEntry{{Homework: "hw1", Grade: &grade}}))
	svc := NewExportService(users, zerolog.Nop())

	payload, err := svc.Workbook(context.Background(), "hw1")
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer workbook.Close()

	header, err := workbook.GetCellValue("Students", "A1")
	require.NoError(t, err)
	require.Equal(t, "username", header)

	username, err := workbook.GetCellValue("Students", "A2")
	require.NoError(t, err)
	require.Equal(t, "alice", username)

	value, err := workbook.GetCellValue("Students", "B2")
	require.NoError(t, err)
	require.Equal(t, "75", value)
}

func TestExportWorkbookEmptyHomework(t *testing.T) {
	users := newUserRepoStub()
	svc := NewExportService(users, zerolog.Nop())

	payload, err := svc.Workbook(context.Background(), "hw1")
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Students")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
