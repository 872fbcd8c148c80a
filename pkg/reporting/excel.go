package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tradelab/crypto-risk-engine/internal/risk"
)

const (
	summarySheet   = "Summary"
	positionsSheet = "Positions"
)

// excelStyles holds the style IDs used across sheets.
type excelStyles struct {
	Header   int
	Currency int
	Percent  int
	Base     int
}

// ExcelReporter writes portfolio snapshots to an Excel workbook.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteSnapshot writes the portfolio state and risk limits to path,
// creating parent directories as needed.
func (r *ExcelReporter) WriteSnapshot(state risk.PortfolioState, limits risk.Limits, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(positionsSheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, state, limits, styles); err != nil {
		return err
	}
	if err := r.writePositionsSheet(fx, state, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 9,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Base, err = fx.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, state risk.PortfolioState, limits risk.Limits, styles excelStyles) error {
	sheet := summarySheet

	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "B", 18)

	type row struct {
		label string
		value interface{}
		style int
	}

	rows := []row{
		{"Generated At", time.Now().UTC().Format("2006-01-02 15:04:05"), styles.Base},
		{"Balance", state.Balance, styles.Currency},
		{"Initial Balance", state.InitialBalance, styles.Currency},
		{"Daily Realized PnL", state.DailyRealizedPnL, styles.Currency},
		{"Cumulative PnL", state.CumulativePnL, styles.Currency},
		{"Open Positions", len(state.OpenPositions()), styles.Base},
		{"Aggregate Exposure", state.AggregateExposure(), styles.Currency},
		{"Risk Per Trade", limits.RiskPerTrade, styles.Percent},
		{"Stop Loss", limits.StopLossPct, styles.Percent},
		{"Take Profit", limits.TakeProfitPct, styles.Percent},
		{"Daily Loss Limit", limits.DailyLossLimit, styles.Percent},
		{"Max Loss Limit", limits.MaxLossLimit, styles.Percent},
		{"Max Position Size", limits.MaxPositionSize, styles.Percent},
		{"Max Positions", limits.MaxPositions, styles.Base},
	}

	for i, rw := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		fx.SetCellValue(sheet, labelCell, rw.label)
		fx.SetCellStyle(sheet, labelCell, labelCell, styles.Header)
		fx.SetCellValue(sheet, valueCell, rw.value)
		fx.SetCellStyle(sheet, valueCell, valueCell, rw.style)
	}

	return nil
}

func (r *ExcelReporter) writePositionsSheet(fx *excelize.File, state risk.PortfolioState, styles excelStyles) error {
	sheet := positionsSheet

	fx.SetColWidth(sheet, "A", "A", 38) // ID
	fx.SetColWidth(sheet, "B", "B", 14) // Symbol
	fx.SetColWidth(sheet, "C", "C", 8)  // Side
	fx.SetColWidth(sheet, "D", "D", 12) // Amount
	fx.SetColWidth(sheet, "E", "E", 12) // Entry
	fx.SetColWidth(sheet, "F", "F", 12) // Stop Loss
	fx.SetColWidth(sheet, "G", "G", 12) // Take Profit
	fx.SetColWidth(sheet, "H", "H", 12) // PnL
	fx.SetColWidth(sheet, "I", "I", 10) // Status
	fx.SetColWidth(sheet, "J", "J", 18) // Opened At

	headers := []string{"ID", "Symbol", "Side", "Amount", "Entry Price", "Stop Loss", "Take Profit", "PnL", "Status", "Opened At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.Header)
	}

	for i, p := range state.Positions {
		rowNum := i + 2

		setCell := func(col int, value interface{}, style int) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			fx.SetCellValue(sheet, cell, value)
			fx.SetCellStyle(sheet, cell, cell, style)
		}

		setCell(1, p.ID, styles.Base)
		setCell(2, p.Symbol, styles.Base)
		setCell(3, string(p.Side), styles.Base)
		setCell(4, p.Amount, styles.Base)
		setCell(5, p.EntryPrice, styles.Currency)
		setCell(6, levelValue(p.StopLoss), styles.Currency)
		setCell(7, levelValue(p.TakeProfit), styles.Currency)
		setCell(8, p.PnL, styles.Currency)
		setCell(9, string(p.Status), styles.Base)
		setCell(10, p.OpenedAt.UTC().Format("2006-01-02 15:04:05"), styles.Base)
	}

	return nil
}

func levelValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
