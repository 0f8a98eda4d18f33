package service

import (
	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/models"
)

// Summarize derives dashboard statistics from per-submission percentages. An empty input
// yields all zeros; the average is the mean of the individual percentages.
func Summarize(submissions []models.Submission) dto.SubmissionStats {
	if len(submissions) == 0 {
		return dto.SubmissionStats{}
	}

	stats := dto.SubmissionStats{Count: len(submissions)}
	var total float64
	for i, submission := range submissions {
		percent := submission.Percent()
		total += percent

		if i == 0 || percent > stats.MaxPercent {
			stats.MaxPercent = percent
		}
		if i == 0 || percent < stats.MinPercent {
			stats.MinPercent = percent
		}
	}
	stats.AveragePercent = total / float64(len(submissions))

	return stats
}

// FilterByExam keeps the submissions of one exam in their original order.
func FilterByExam(submissions []models.Submission, examID uint) []models.Submission {
	filtered := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.ExamID == examID {
			filtered = append(filtered, submission)
		}
	}
	return filtered
}
