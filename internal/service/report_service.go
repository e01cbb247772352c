package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/repository"
	"mtr/training-app/internal/trainingweek"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoAssignmentsInWindow = errors.New("no assignments scheduled in the current training week")
)

const reportSheetName = "Weekly Report"

// WeeklyReport is a generated spreadsheet ready to stream to the client.
type WeeklyReport struct {
	Filename string
	File     *excelize.File
}

// --- Service Interface ---
type ReportService interface {
	BuildWeeklyReport(ctx context.Context) (*WeeklyReport, error)
}

// --- Service Implementation ---

// reportService implements the ReportService interface.
type reportService struct {
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	trainingTypes  []string
	now            func() time.Time
}

// NewReportService creates a new instance of reportService. trainingTypes
// defines the report's column set and order.
func NewReportService(
	userRepo repository.UserRepository,
	assignmentRepo repository.AssignmentRepository,
	trainingTypes []string,
	now func() time.Time,
) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		trainingTypes:  trainingTypes,
		now:            now,
	}
}

// BuildWeeklyReport renders the current training week as an athlete x
// training-type matrix. Each cell holds Completed, Missed, or stays blank
// when nothing of that type was scheduled for that athlete this week.
func (s *reportService) BuildWeeklyReport(ctx context.Context) (*WeeklyReport, error) {
	// 1. Resolve the current training week
	week := trainingweek.Current(s.now())
	startDate := domain.FormatDate(week.Start)
	endDate := domain.FormatDate(week.End)

	// 2. Fetch every assignment targeted inside the window
	assignments, err := s.assignmentRepo.GetByTargetRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, ErrNoAssignmentsInWindow
	}

	// 3. Resolve athlete names and order rows alphabetically
	athleteIDs := make([]primitive.ObjectID, 0)
	seen := make(map[primitive.ObjectID]bool)
	for _, a := range assignments {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			athleteIDs = append(athleteIDs, a.UserID)
		}
	}
	users, err := s.userRepo.GetByIDs(ctx, athleteIDs)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[primitive.ObjectID]string, len(users))
	for i := range users {
		nameByID[users[i].ID] = users[i].Username
	}

	type reportRow struct {
		name       string
		byTypeCell map[string]string // Column label -> "Completed" | "Missed" | ""
	}
	rowByID := make(map[primitive.ObjectID]*reportRow, len(athleteIDs))
	rows := make([]*reportRow, 0, len(athleteIDs))
	for _, id := range athleteIDs {
		name := nameByID[id]
		if name == "" {
			name = id.Hex()
		}
		row := &reportRow{name: name, byTypeCell: make(map[string]string)}
		rowByID[id] = row
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].name) < strings.ToLower(rows[j].name)
	})

	// 4. Fill cells. Any status other than completed renders as Missed, and
	// Completed wins when the same athlete and type appear twice.
	for _, a := range assignments {
		column, ok := matchTrainingType(s.trainingTypes, a.TrainingType)
		if !ok {
			// Assignment created before the menu changed; skip rather than
			// invent a column.
			continue
		}
		row := rowByID[a.UserID]
		if a.Status == domain.StatusCompleted {
			row.byTypeCell[column] = "Completed"
		} else if row.byTypeCell[column] != "Completed" {
			row.byTypeCell[column] = "Missed"
		}
	}

	// 5. Render the spreadsheet
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", reportSheetName)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	completedStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "006100"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	missedStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "9C0006"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	lastCol, err := excelize.CoordinatesToCellName(len(s.trainingTypes)+1, 1)
	if err != nil {
		return nil, err
	}
	if err := f.MergeCell(reportSheetName, "A1", lastCol); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(reportSheetName, "A1", "MTR Private Training - Weekly Report"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(reportSheetName, "A1", lastCol, titleStyle); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(reportSheetName, "A2", fmt.Sprintf("Week %s to %s", startDate, endDate)); err != nil {
		return nil, err
	}

	const headerRowIdx = 4
	if err := setCell(f, 1, headerRowIdx, "Athlete"); err != nil {
		return nil, err
	}
	for i, trainingType := range s.trainingTypes {
		if err := setCell(f, i+2, headerRowIdx, trainingType); err != nil {
			return nil, err
		}
	}
	headerEnd, err := excelize.CoordinatesToCellName(len(s.trainingTypes)+1, headerRowIdx)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(reportSheetName, fmt.Sprintf("A%d", headerRowIdx), headerEnd, headerStyle); err != nil {
		return nil, err
	}

	for rowIdx, row := range rows {
		sheetRow := headerRowIdx + 1 + rowIdx
		if err := setCell(f, 1, sheetRow, row.name); err != nil {
			return nil, err
		}
		for colIdx, trainingType := range s.trainingTypes {
			value := row.byTypeCell[trainingType]
			if value == "" {
				continue
			}
			if err := setCell(f, colIdx+2, sheetRow, value); err != nil {
				return nil, err
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+2, sheetRow)
			if err != nil {
				return nil, err
			}
			style := completedStyle
			if value == "Missed" {
				style = missedStyle
			}
			if err := f.SetCellStyle(reportSheetName, cell, cell, style); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(reportSheetName, "A", "A", 24); err != nil {
		return nil, err
	}
	endColName, err := excelize.ColumnNumberToName(len(s.trainingTypes) + 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(reportSheetName, "B", endColName, 18); err != nil {
		return nil, err
	}

	return &WeeklyReport{
		Filename: fmt.Sprintf("weekly-report-%s.xlsx", domain.FormatDate(s.now())),
		File:     f,
	}, nil
}

func setCell(f *excelize.File, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(reportSheetName, cell, value)
}
