package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/tujenge/kazi/core/attendance"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var leaderboardHeader = []string{
	"Rank", "Name", "Username", "Days Worked", "Total Score", "Avg Score", "Total Bonus (EGP)", "Approved", "Pending",
}

func (api *attendanceApi) exportLeaderboard(ctx echo.Context) error {
	var filter attendance.LeaderboardFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to LeaderboardFilter")
	}

	board, err := api.svc.Leaderboard(filter)
	if err != nil {
		return err
	}

	buf, err := leaderboardWorkbook(board)
	if err != nil {
		return errors.Wrap(err, "building leaderboard workbook")
	}

	filename := fmt.Sprintf("leaderboard_%s.xlsx", board.Meta.ResolvedRange)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func leaderboardWorkbook(board attendance.Leaderboard) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Leaderboard"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for col, title := range leaderboardHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err = f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, row := range board.Rows {
		values := []interface{}{
			row.Rank, row.Name, row.Username, row.DaysWorked,
			row.TotalScore, row.AverageScore, row.TotalBonus, row.ApprovedCount, row.PendingCount,
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err = f.SetCellValue(sheet, cell, val); err != nil {
				return nil, err
			}
		}
	}

	// a footer row making the provenance of the numbers explicit
	metaCell, _ := excelize.CoordinatesToCellName(1, len(board.Rows)+3)
	meta := fmt.Sprintf("source: %s | range: %s | forms: %d (approved %d, pending %d)",
		board.Meta.SourceTierUsed, board.Meta.ResolvedRange,
		board.Meta.FormsEvaluated, board.Meta.ApprovedCount, board.Meta.PendingCount)
	if board.Meta.Historical {
		meta += " | historical fallback"
	}
	if err = f.SetCellValue(sheet, metaCell, meta); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}
