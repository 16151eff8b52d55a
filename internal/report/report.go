// Package report renders extraction results as CSV and XLSX files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"resume-extract-go/internal/types"
)

// utf8BOM makes Excel open the CSV as UTF-8, otherwise Japanese
// fields render as mojibake.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const listSeparator = " | "

// FlatHeader is the column order shared by CSV and XLSX output.
func FlatHeader() []string {
	return []string{
		"Record ID",
		"Source File",
		"Name",
		"Email",
		"Phone",
		"Date of Birth",
		"Location",
		"Hard Skills",
		"Soft Skills",
		"Experience",
		"Education",
		"AI Enhanced",
		"Status",
		"Parse Method",
		"Processed At",
	}
}

// FlatRow flattens one record into the FlatHeader column order.
func FlatRow(rec *types.ResumeRecord) []string {
	jobs := make([]string, 0, len(rec.WorkingExperience))
	for _, j := range rec.WorkingExperience {
		jobs = append(jobs, fmt.Sprintf("%s / %s / %s", j.Company, j.Role, j.Duration))
	}
	schools := make([]string, 0, len(rec.Education))
	for _, e := range rec.Education {
		parts := []string{e.Institution}
		if e.Degree != "" && e.Degree != "N/A" {
			parts = append(parts, e.Degree)
		}
		if e.Year != "" && e.Year != "N/A" {
			parts = append(parts, e.Year)
		}
		schools = append(schools, strings.Join(parts, " / "))
	}

	return []string{
		rec.RecordID,
		rec.SourceFile,
		rec.Name,
		rec.Email,
		rec.Phone,
		rec.DateOfBirth,
		rec.Location,
		strings.Join(rec.Skills.HardSkills, listSeparator),
		strings.Join(rec.Skills.SoftSkills, listSeparator),
		strings.Join(jobs, listSeparator),
		strings.Join(schools, listSeparator),
		fmt.Sprintf("%t", rec.AIEnhanced),
		string(rec.Status),
		rec.ParseMethod,
		rec.ProcessedAt.Format("2006-01-02 15:04:05"),
	}
}

// WriteCSV writes records as UTF-8 CSV with a BOM prefix.
func WriteCSV(w io.Writer, records []*types.ResumeRecord) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(FlatHeader()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(FlatRow(rec)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", rec.RecordID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to a CSV file at path.
func WriteCSVFile(path string, records []*types.ResumeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSV(f, records)
}

// WriteXLSX writes records to an Excel workbook at path.
func WriteXLSX(path string, records []*types.ResumeRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Resumes"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range FlatHeader() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, rec := range records {
		for col, v := range FlatRow(rec) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 24)
	_ = f.SetColWidth(sheet, "C", "G", 18)
	_ = f.SetColWidth(sheet, "H", "K", 44)
	_ = f.SetColWidth(sheet, "L", "O", 14)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
