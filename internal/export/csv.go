// Package export renders submission data as downloadable CSV artifacts.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/exam-console-api/internal/models"
)

const (
	// ContentType is served with every artifact.
	ContentType = "text/csv; charset=utf-8"

	// KindBatch labels a multi-submission export.
	KindBatch = "batch"
	// KindDetail labels a single-submission export.
	KindDetail = "detail"

	notAvailable = "N/A"
	notAnswered  = "Not Answered"

	// DefaultTimeLayout renders timestamps in a month/day/year locale form.
	DefaultTimeLayout = "1/2/2006 3:04:05 PM"
)

var (
	batchHeader = []string{
		"Student Name",
		"Roll Number",
		"Email",
		"Exam Name",
		"Topic",
		"Score",
		"Total Questions",
		"Time Taken (minutes)",
		"Submitted At",
	}
	detailHeader = []string{
		"Question Number",
		"Question",
		"Topic",
		"Option A",
		"Option B",
		"Option C",
		"Option D",
		"Correct Answer",
		"Selected Answer",
		"Is Correct",
		"Time Taken (seconds)",
	}
)

// Options controls how timestamps are rendered in the batch export.
type Options struct {
	TimeLayout string
	Location   *time.Location
}

func (o Options) formatTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return notAvailable
	}

	layout := o.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	location := o.Location
	if location == nil {
		location = time.UTC
	}

	return value.In(location).Format(layout)
}

// Artifact is an in-memory file handed to the caller for download.
type Artifact struct {
	Filename    string
	ContentType string
	Kind        string
	Body        []byte
}

// Batch encodes submissions one row each. Fields are joined as-is: values containing the
// delimiter or a newline produce malformed rows.
func Batch(submissions []models.Submission, opts Options) []byte {
	var builder strings.Builder
	builder.WriteString(strings.Join(batchHeader, ","))

	for _, submission := range submissions {
		minutes := notAvailable
		if submission.TimeTakenMinutes != nil {
			minutes = strconv.Itoa(*submission.TimeTakenMinutes)
		}

		row := []string{
			submission.Student.Name,
			submission.Student.RollNumber,
			submission.Student.Email,
			submission.Exam.Name,
			submission.Exam.Topic,
			strconv.Itoa(submission.TotalScore),
			strconv.Itoa(submission.TotalQuestions),
			minutes,
			opts.formatTime(submission.SubmittedAt),
		}

		builder.WriteByte('\n')
		builder.WriteString(strings.Join(row, ","))
	}

	return []byte(builder.String())
}

// Detail encodes the responses of one submission. Every field is quoted.
func Detail(responses []models.Response) []byte {
	var builder strings.Builder
	writeQuotedRow(&builder, detailHeader)

	for idx, response := range responses {
		selected := notAnswered
		if response.Answered() {
			selected = strings.ToUpper(*response.SelectedAnswer)
		}

		correct := "No"
		if response.IsCorrect {
			correct = "Yes"
		}

		seconds := notAvailable
		if response.TimeTakenSeconds != nil {
			seconds = strconv.Itoa(*response.TimeTakenSeconds)
		}

		number := response.Question.QuestionOrder
		if number <= 0 {
			number = idx + 1
		}

		builder.WriteByte('\n')
		writeQuotedRow(&builder, []string{
			strconv.Itoa(number),
			response.Question.QuestionText,
			response.Question.TopicTag,
			response.Question.OptionA,
			response.Question.OptionB,
			response.Question.OptionC,
			response.Question.OptionD,
			strings.ToUpper(response.Question.CorrectAnswer),
			selected,
			correct,
			seconds,
		})
	}

	return []byte(builder.String())
}

func writeQuotedRow(builder *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteByte('"')
		builder.WriteString(strings.ReplaceAll(field, `"`, `""`))
		builder.WriteByte('"')
	}
}

// BatchFilename names a batch artifact after the exam filter and the export date.
func BatchFilename(examID *uint, at time.Time) string {
	scope := "all"
	if examID != nil {
		scope = strconv.FormatUint(uint64(*examID), 10)
	}
	return fmt.Sprintf("exam-submissions-%s-%s.csv", scope, at.UTC().Format("2006-01-02"))
}

// DetailFilename names a single-submission artifact after the student's roll number.
func DetailFilename(rollNumber string, at time.Time) string {
	roll := sanitizeFilePart(rollNumber)
	if roll == "" {
		roll = "unknown"
	}
	return fmt.Sprintf("submission-%s-%s.csv", roll, at.UTC().Format("2006-01-02"))
}

func sanitizeFilePart(value string) string {
	var builder strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			builder.WriteRune(r)
		case r == ' ' || r == '/' || r == '.':
			builder.WriteRune('-')
		}
	}
	return builder.String()
}
