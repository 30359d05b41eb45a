package handler_test

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/opengrade/opengrade-api/internal/models"
)

func TestExportRequiresHomeworkName(t *testing.T) {
	fx := setupApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/export", nil)
	resp, err := fx.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExportReturnsGradeWorkbook(t *testing.T) {
	fx := setupApp(t)

	grade := 92.5
	seedUser(t, fx, "alice", []models.GradeEntry{{Homework: "hw1", Grade: &grade}})
	seedUser(t, fx, "bob", []models.GradeEntry{{Homework: "hw2"}})

	req := httptest.NewRequest(fiber.MethodGet, "/export?homework_name=hw1", nil)
	resp, err := fx.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "students.xlsx")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("Students")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"username", "grade"}, rows[0])
	require.Equal(t, "alice", rows[1][0])
	require.Equal(t, "92.5", rows[1][1])
}
