package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/careerflow/internal/model"
)

// educationRow / experienceRow はJSONBカラムの保存形式。
// モデル構造体にシリアライズ形式を持ち込まないため、変換はリポジトリ層に閉じる。

type educationRow struct {
	Degree       string     `json:"degree"`
	Institution  string     `json:"institution"`
	FieldOfStudy string     `json:"fieldOfStudy"`
	GPA          string     `json:"gpa"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}

type experienceRow struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Description string     `json:"description"`
}

func marshalEducation(entries []model.Education) ([]byte, error) {
	rows := make([]educationRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, educationRow(e))
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal education: %w", err)
	}
	return data, nil
}

func unmarshalEducation(data []byte) ([]model.Education, error) {
	var rows []educationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal education: %w", err)
	}
	entries := make([]model.Education, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.Education(r))
	}
	return entries, nil
}

func marshalExperience(entries []model.Experience) ([]byte, error) {
	rows := make([]experienceRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, experienceRow(e))
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal experience: %w", err)
	}
	return data, nil
}

func unmarshalExperience(data []byte) ([]model.Experience, error) {
	var rows []experienceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal experience: %w", err)
	}
	entries := make([]model.Experience, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.Experience(r))
	}
	return entries, nil
}
