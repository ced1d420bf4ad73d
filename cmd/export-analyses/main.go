package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amand4priscil4/DetectaBB-Backend-3/config"
	"github.com/amand4priscil4/DetectaBB-Backend-3/explain"
	"github.com/amand4priscil4/DetectaBB-Backend-3/models"
)

// Ops tool: dump analysis jobs to a spreadsheet for manual review or
// fraud-team reporting. Read-only.
func main() {
	from := flag.String("from", "", "Optional: only jobs uploaded on/after this date (YYYY-MM-DD)")
	to := flag.String("to", "", "Optional: only jobs uploaded before this date (YYYY-MM-DD)")
	status := flag.String("status", "", "Optional: filter by status (processing|completed|failed)")
	out := flag.String("out", "analyses-export.xlsx", "Output file path")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	q := db.Model(&models.AnalysisJob{}).Order("uploaded_at")
	if s := strings.TrimSpace(*from); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid --from date:", err)
			os.Exit(1)
		}
		q = q.Where("uploaded_at >= ?", t)
	}
	if s := strings.TrimSpace(*to); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid --to date:", err)
			os.Exit(1)
		}
		q = q.Where("uploaded_at < ?", t)
	}
	if s := strings.TrimSpace(*status); s != "" {
		q = q.Where("status = ?", s)
	}

	var jobs []models.AnalysisJob
	if err := q.Find(&jobs).Error; err != nil {
		fmt.Fprintln(os.Stderr, "query failed:", err)
		os.Exit(1)
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "Id")
	f.SetCellValue(sheet, "B1", "Status")
	f.SetCellValue(sheet, "C1", "UploadedAt")
	f.SetCellValue(sheet, "D1", "FileName")
	f.SetCellValue(sheet, "E1", "FileType")
	f.SetCellValue(sheet, "F1", "FileSize")
	f.SetCellValue(sheet, "G1", "IsFraud")
	f.SetCellValue(sheet, "H1", "RiskLevel")
	f.SetCellValue(sheet, "I1", "Error")

	// Add data
	for i, job := range jobs {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, job.ID)
		f.SetCellValue(sheet, "B"+row, string(job.Status))
		f.SetCellValue(sheet, "C"+row, job.UploadedAt.UTC().Format(time.RFC3339))
		f.SetCellValue(sheet, "D"+row, job.FileName)
		f.SetCellValue(sheet, "E"+row, job.FileType)
		f.SetCellValue(sheet, "F"+row, job.FileSize)
		if len(job.Result) > 0 {
			var verdict explain.Verdict
			if err := json.Unmarshal(job.Result, &verdict); err == nil {
				f.SetCellValue(sheet, "G"+row, verdict.IsFraud)
				f.SetCellValue(sheet, "H"+row, string(verdict.RiskLevel))
			}
		}
		if job.Error != nil {
			f.SetCellValue(sheet, "I"+row, *job.Error)
		}
	}

	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintln(os.Stderr, "write failed:", err)
		os.Exit(1)
	}
	fmt.Printf("exported %d analyses to %s\n", len(jobs), *out)
}
