package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Export renders the assessment's class statistics as an xlsx workbook with
// a summary sheet and a per-question performance sheet.
func (s *statisticsService) Export(ctx context.Context, assessmentID uint) ([]byte, error) {
	response, err := s.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if response.Statistics == nil {
		return nil, ErrStatisticsNotFound
	}
	stats := response.Statistics

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Assessment", response.AssessmentTitle},
		{"Generated At", stats.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Total Students", stats.TotalStudents},
		{"Completed Students", stats.CompletedStudents},
		{"Average Score (%)", stats.AverageScore},
		{"Pass Rate (%)", stats.PassRate},
		{"Average Time (s)", stats.AverageTimeSeconds},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if err := writeBreakdownSheet(f, "Breakdowns", stats); err != nil {
		return nil, err
	}
	if err := writeQuestionSheet(f, "Questions", stats); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBreakdownSheet(f *excelize.File, sheet string, stats *StatisticsDetail) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Category", "Bucket", "Total", "Correct", "Accuracy (%)"},
	}

	for _, key := range sortedKeys(stats.DifficultyBreakdown) {
		e := stats.DifficultyBreakdown[key]
		rows = append(rows, []interface{}{"difficulty", key, e.Total, e.Correct, e.Accuracy})
	}
	for _, key := range sortedKeys(stats.BloomLevelBreakdown) {
		e := stats.BloomLevelBreakdown[key]
		rows = append(rows, []interface{}{"bloom_level", key, e.Total, e.Correct, e.Accuracy})
	}

	return writeRows(f, sheet, rows)
}

func writeQuestionSheet(f *excelize.File, sheet string, stats *StatisticsDetail) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Question ID", "Text", "Difficulty", "Bloom Level", "Total", "Correct", "Accuracy (%)", "Avg Time (s)"},
	}

	questions := make([]string, 0, len(stats.QuestionPerformance))
	for key := range stats.QuestionPerformance {
		questions = append(questions, key)
	}
	sort.Slice(questions, func(i, j int) bool {
		return stats.QuestionPerformance[questions[i]].QuestionID < stats.QuestionPerformance[questions[j]].QuestionID
	})

	for _, key := range questions {
		q := stats.QuestionPerformance[key]
		rows = append(rows, []interface{}{
			q.QuestionID, q.Text, q.Difficulty, q.BloomLevel,
			q.Total, q.Correct, q.Accuracy, q.AvgTimeSec,
		})
	}

	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", sheet, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
