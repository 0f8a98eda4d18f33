package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-console-api/internal/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func sampleSubmissions() []models.Submission {
	submittedAt := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	return []models.Submission{
		{
			ID:               1,
			TotalScore:       8,
			TotalQuestions:   10,
			TimeTakenMinutes: intPtr(25),
			SubmittedAt:      &submittedAt,
			Student:          models.Student{Name: "Ada Lovelace", RollNumber: "R-001", Email: "ada@example.com"},
			Exam:             models.Exam{Name: "Midterm", Topic: "Algebra"},
		},
		{
			ID:             2,
			TotalScore:     3,
			TotalQuestions: 5,
			Student:        models.Student{Name: "Alan Turing", RollNumber: "R-002", Email: "alan@example.com"},
			Exam:           models.Exam{Name: "Midterm", Topic: "Algebra"},
		},
	}
}

func TestBatchRoundTripRowCount(t *testing.T) {
	submissions := sampleSubmissions()
	body := string(Batch(submissions, Options{}))

	rows := strings.Split(body, "\n")
	require.Len(t, rows, len(submissions)+1)
	require.Equal(t, "Student Name,Roll Number,Email,Exam Name,Topic,Score,Total Questions,Time Taken (minutes),Submitted At", rows[0])

	for _, row := range rows[1:] {
		require.Len(t, strings.Split(row, ","), len(batchHeader))
	}
}

func TestBatchFormatsValuesAndSentinels(t *testing.T) {
	body := string(Batch(sampleSubmissions(), Options{TimeLayout: DefaultTimeLayout, Location: time.UTC}))
	rows := strings.Split(body, "\n")

	require.Equal(t, "Ada Lovelace,R-001,ada@example.com,Midterm,Algebra,8,10,25,3/5/2024 2:07:09 PM", rows[1])
	require.Equal(t, "Alan Turing,R-002,alan@example.com,Midterm,Algebra,3,5,N/A,N/A", rows[2])
}

func TestBatchAppliesTimezone(t *testing.T) {
	location := time.FixedZone("UTC+7", 7*60*60)
	body := string(Batch(sampleSubmissions()[:1], Options{TimeLayout: "2006-01-02 15:04", Location: location}))

	require.True(t, strings.HasSuffix(body, ",2024-03-05 21:07"))
}

func TestBatchWithoutSubmissionsIsHeaderOnly(t *testing.T) {
	body := string(Batch(nil, Options{}))
	require.Equal(t, strings.Join(batchHeader, ","), body)
}

func TestDetailUnansweredQuestion(t *testing.T) {
	responses := []models.Response{
		{
			SelectedAnswer:   strPtr("b"),
			IsCorrect:        true,
			TimeTakenSeconds: intPtr(12),
			Question: models.Question{
				QuestionOrder: 1, QuestionText: "2 + 2?", TopicTag: "arithmetic",
				OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectAnswer: "b",
			},
		},
		{
			Question: models.Question{
				QuestionOrder: 2, QuestionText: `Define "ring"`, TopicTag: "algebra",
				OptionA: "a, b", OptionB: "x", OptionC: "y", OptionD: "z", CorrectAnswer: "a",
			},
		},
	}

	body := string(Detail(responses))
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, `"2","Define ""ring""","algebra","a, b","x","y","z","A","Not Answered","No","N/A"`, lines[2])

	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, detailHeader, records[0])
	require.Equal(t, []string{"1", "2 + 2?", "arithmetic", "3", "4", "5", "6", "B", "B", "Yes", "12"}, records[1])
	require.Equal(t, "Not Answered", records[2][8])
	require.Equal(t, "No", records[2][9])
	require.Equal(t, `Define "ring"`, records[2][1])
}

func TestFilenames(t *testing.T) {
	at := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	examID := uint(42)

	require.Equal(t, "exam-submissions-42-2024-03-05.csv", BatchFilename(&examID, at))
	require.Equal(t, "exam-submissions-all-2024-03-05.csv", BatchFilename(nil, at))
	require.Equal(t, "submission-R-001-2024-03-05.csv", DetailFilename("R-001", at))
	require.Equal(t, "submission-12-A-2024-03-05.csv", DetailFilename("12/A", at))
	require.Equal(t, "submission-unknown-2024-03-05.csv", DetailFilename("", at))
}
