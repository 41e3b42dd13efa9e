package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/apiarist/hivectl/internal/alerts"
	"github.com/apiarist/hivectl/internal/models"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the alert history to a file",
	Long: `Export the current alert list to an XLSX workbook or a CSV file.

The XLSX workbook carries a summary sheet (severity counts, unread
count) next to the alert rows. The format is taken from --format, or
from the file extension when the flag is not set.

Examples:
  hivectl export alerts.xlsx
  hivectl export alerts.csv
  hivectl export report --format xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: xlsx or csv")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	format := exportFormat
	if format == "" {
		switch filepath.Ext(path) {
		case ".csv":
			format = "csv"
		default:
			format = "xlsx"
		}
	}

	rec := alerts.NewReconciler(apiClient, logger)
	if err := rec.Load(ctx); err != nil {
		return err
	}
	list := rec.Sorted(alerts.SortTimestamp)

	var err error
	switch format {
	case "xlsx":
		err = writeAlertsXLSX(path, rec, list)
	case "csv":
		err = writeAlertsCSV(path, list)
	default:
		exitWithError("unknown format %q (want xlsx or csv)", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d alerts to %s.\n", len(list), path)
	return nil
}

func alertRow(a models.AlertRecord) []string {
	when := ""
	if a.TimestampMs > 0 {
		when = time.UnixMilli(a.TimestampMs).UTC().Format(time.RFC3339)
	}
	return []string{
		a.ID, string(a.Severity), a.AlertType, a.Title, a.Message,
		a.BeehiveName, a.FarmName, when, strconv.FormatBool(a.Read),
	}
}

var alertHeader = []string{
	"id", "severity", "type", "title", "message",
	"beehive", "farm", "timestamp", "read",
}

func writeAlertsXLSX(path string, rec *alerts.Reconciler, list []models.AlertRecord) error {
	f := excelize.NewFile()
	summarySheet := "summary"
	alertsSheet := "alerts"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	counts := rec.CountBySeverity()
	_ = f.SetCellValue(summarySheet, "A1", "Apiary Alert Export")
	_ = f.SetCellValue(summarySheet, "A3", "Exported")
	_ = f.SetCellValue(summarySheet, "B3", time.Now().UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Total")
	_ = f.SetCellValue(summarySheet, "B4", len(list))
	_ = f.SetCellValue(summarySheet, "A5", "Unread")
	_ = f.SetCellValue(summarySheet, "B5", rec.UnreadCount())
	_ = f.SetCellValue(summarySheet, "A6", "Critical")
	_ = f.SetCellValue(summarySheet, "B6", counts[models.SeverityCritical])
	_ = f.SetCellValue(summarySheet, "A7", "Warning")
	_ = f.SetCellValue(summarySheet, "B7", counts[models.SeverityWarning])
	_ = f.SetCellValue(summarySheet, "A8", "Info")
	_ = f.SetCellValue(summarySheet, "B8", counts[models.SeverityInfo])

	for col, h := range alertHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(alertsSheet, cell, h)
	}
	for i, a := range list {
		for col, v := range alertRow(a) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(alertsSheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAlertsCSV(path string, list []models.AlertRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(alertHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range list {
		if err := w.Write(alertRow(a)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
