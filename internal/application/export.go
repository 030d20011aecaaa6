package application

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
)

const exportSheetName = "Applicants"

var exportHeaders = []string{
	"Full Name",
	"Email Address",
	"Skills",
	"Education",
	"Work Experience",
	"Cover Letter",
	"Resume URL",
	"Applied At",
	"Status",
}

// buildWorkbook は応募一覧からxlsxワークブックを生成する。
func buildWorkbook(apps []repository.ApplicationWithApplicant) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(exportSheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, app := range apps {
		values := []string{
			app.Applicant.FullName,
			app.Applicant.Email,
			strings.Join(app.Applicant.Skills, ", "),
			formatEducation(app.Applicant.Education),
			formatExperience(app.Applicant.Experience),
			app.Application.CoverLetter,
			app.Application.ResumeURL,
			app.Application.CreatedAt.Format(time.RFC3339),
			string(app.Application.Status),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// formatEducation は学歴エントリを1セル用の文字列に整形する。
func formatEducation(entries []model.Education) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		segment := e.Degree
		if e.FieldOfStudy != "" {
			segment += " in " + e.FieldOfStudy
		}
		if e.Institution != "" {
			segment += " - " + e.Institution
		}
		parts = append(parts, strings.TrimSpace(segment))
	}
	return strings.Join(parts, "; ")
}

// formatExperience は職歴エントリを1セル用の文字列に整形する。
func formatExperience(entries []model.Experience) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		segment := e.Title
		if e.Company != "" {
			segment += " at " + e.Company
		}
		parts = append(parts, strings.TrimSpace(segment))
	}
	return strings.Join(parts, "; ")
}

// exportFilename は求人タイトルからダウンロードファイル名を導出する。
// 英数字以外はアンダースコアに置換し、40文字で打ち切る。
func exportFilename(jobTitle string) string {
	var b strings.Builder
	for _, r := range jobTitle {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 40 {
		name = name[:40]
	}
	return name + "_applicants.xlsx"
}
