package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

const (
	sheetAttendance = "Attendance"
	sheetSummary    = "Summary"
)

// ReportService builds spreadsheet exports.
type ReportService struct {
	store repository.Store
}

// NewReportService creates a new ReportService.
func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

// AttendanceWorkbook exports a class's records with from <= date <= to. The
// "Attendance" sheet lists every record, the "Summary" sheet aggregates per
// student over the same range. Callers must Close the returned file.
func (s *ReportService) AttendanceWorkbook(ctx context.Context, classID int, from, to model.Date) (*excelize.File, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}

	q := s.store.Queries()
	if _, err := q.Classes.GetByID(ctx, classID); err != nil {
		return nil, lookup("class", classID, err)
	}
	records, err := q.Attendance.ListByClassBetween(ctx, classID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	names := map[int]string{}
	type tally struct{ present, total int }
	tallies := map[int]*tally{}
	var order []int

	rows := make([][]any, 0, len(records))
	for _, a := range records {
		if _, ok := names[a.StudentID]; !ok {
			st, err := q.Students.GetByID(ctx, a.StudentID)
			if err != nil {
				return nil, lookup("student", a.StudentID, err)
			}
			names[a.StudentID] = st.FullName()
			tallies[a.StudentID] = &tally{}
			order = append(order, a.StudentID)
		}
		t := tallies[a.StudentID]
		t.total++
		if a.Present {
			t.present++
		}
		rows = append(rows, []any{a.Date.String(), a.StudentID, names[a.StudentID], presentLabel(a.Present), a.Notes})
	}

	summary := make([][]any, 0, len(order))
	slices.Sort(order)
	for _, id := range order {
		t := tallies[id]
		summary = append(summary, []any{id, names[id], t.present, t.total, Percentage(t.present, t.total)})
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetAttendance); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	if err := writeSheet(f, sheetAttendance, []string{"Date", "Student ID", "Student", "Present", "Notes"}, rows); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, sheetSummary, []string{"Student ID", "Student", "Present", "Total", "Percentage"}, summary); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	_ = f.SetCellStyle(sheet, "A1", lastCol+"1", bold)
	_ = f.AutoFilter(sheet, "A1:"+lastCol+"1", nil)
	_ = f.SetColWidth(sheet, "A", lastCol, 16)
	return nil
}

func presentLabel(present bool) string {
	if present {
		return "yes"
	}
	return "no"
}
