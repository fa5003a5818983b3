package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/models"
	"github.com/prapars-lang/kai/internal/repository"
)

// ErrNoMatchingRecords indicates an export matched zero submissions.
var ErrNoMatchingRecords = errors.New("no matching records")

// csvBOM lets spreadsheet tools render the Thai headers correctly.
const csvBOM = "\ufeff"

var csvHeaders = []string{
	"เลขที่",
	"ชื่อ",
	"ชั้น",
	"ห้อง",
	"กิจกรรม",
	"เนื้อหา/ความถูกต้อง",
	"การมีส่วนร่วม",
	"เทคนิคการนำเสนอ",
	"ความมีวินัย",
	"รวม(20)",
	"ร้อยละ",
	"ความเห็น",
}

// CSVExport is a rendered scores spreadsheet.
type CSVExport struct {
	Filename string
	Content  []byte
}

// ReportRequest selects the one classroom a printable report covers.
type ReportRequest struct {
	Grade        string `validate:"required,oneof='Prathom 5' 'Prathom 6'"`
	Room         string `validate:"required,oneof='Room 1' 'Room 2' 'Room 3' 'Room 4'"`
	ActivityType string `validate:"required,oneof='Sports Day' 'Children Day'"`
}

// ExportService renders the two teacher-facing exports. Both are pure
// functions of the submission list at the time of the call.
type ExportService interface {
	CSV(ctx context.Context) (CSVExport, error)
	Report(ctx context.Context, request ReportRequest) ([]byte, error)
}

type exportService struct {
	repo        repository.SubmissionRepository
	sanitizer   *bluemonday.Policy
	template    *template.Template
	validator   *validator.Validate
	teacherName string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExportService constructs the export service. teacherName appears on the
// printable report's signature block.
func NewExportService(repo repository.SubmissionRepository, teacherName string, logger zerolog.Logger) ExportService {
	return &exportService{
		repo:        repo,
		sanitizer:   bluemonday.StrictPolicy(),
		template:    template.Must(template.New("report").Parse(reportTemplate)),
		validator:   validator.New(),
		teacherName: teacherName,
		logger:      logger.With().Str("component", "export_service").Logger(),
		now:         time.Now,
	}
}

// CSV renders every submission as a comma-separated spreadsheet. Rows are
// ordered by grade, then room, then student number parsed as an integer, so
// the sheet reads classroom by classroom.
func (s *exportService) CSV(ctx context.Context) (CSVExport, error) {
	submissions, err := s.repo.List(ctx)
	if err != nil {
		return CSVExport{}, err
	}

	sortForExport(submissions)

	var builder strings.Builder
	builder.WriteString(csvBOM)
	builder.WriteString(strings.Join(csvHeaders, ","))

	for _, submission := range submissions {
		builder.WriteByte('\n')
		builder.WriteString(strings.Join([]string{
			submission.StudentNumber,
			submission.Name,
			submission.Grade,
			submission.Room,
			submission.ActivityType,
			strconv.Itoa(submission.ContentAccuracy),
			strconv.Itoa(submission.Participation),
			strconv.Itoa(submission.Presentation),
			strconv.Itoa(submission.Discipline),
			strconv.Itoa(submission.TotalScore),
			strconv.Itoa(submission.Percentage),
			quoteCSVField(submission.Comment),
		}, ","))
	}

	filename := fmt.Sprintf("คะแนน_%s.csv", s.now().Format("2006-01-02"))

	s.logger.Info().Int("rows", len(submissions)).Msg("csv export rendered")

	return CSVExport{Filename: filename, Content: []byte(builder.String())}, nil
}

// Report renders the printable score sheet for one (grade, room, activity)
// classroom. An empty match refuses with ErrNoMatchingRecords instead of
// printing a blank sheet.
func (s *exportService) Report(ctx context.Context, request ReportRequest) ([]byte, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, err
	}

	submissions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := SelectAndOrder(submissions, Criteria{
		Grade:        request.Grade,
		Room:         request.Room,
		ActivityType: request.ActivityType,
	}, SortOldest)
	if len(matched) == 0 {
		return nil, ErrNoMatchingRecords
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return studentNumberValue(matched[i].StudentNumber) < studentNumberValue(matched[j].StudentNumber)
	})

	rows := make([]reportRow, 0, len(matched))
	for _, submission := range matched {
		row := reportRow{
			StudentNumber: submission.StudentNumber,
			Name:          submission.Name,
			TotalScore:    "-",
			Percentage:    "-",
			Comment:       "-",
		}
		if submission.IsGraded() {
			row.TotalScore = strconv.Itoa(submission.TotalScore)
			row.Percentage = strconv.Itoa(submission.Percentage)
			if comment := s.sanitizer.Sanitize(submission.Comment); comment != "" {
				row.Comment = comment
			}
		}
		rows = append(rows, row)
	}

	data := reportData{
		Activity:    activityLabel(request.ActivityType),
		GradeLabel:  gradeLabel(request.Grade),
		RoomLabel:   strings.Replace(request.Room, "Room ", "ห้อง ", 1),
		TeacherName: s.teacherName,
		Date:        s.now().Format("2 January 2006"),
		Rows:        rows,
	}

	var out strings.Builder
	if err := s.template.Execute(&out, data); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("grade", request.Grade).
		Str("room", request.Room).
		Int("rows", len(rows)).
		Msg("printable report rendered")

	return []byte(out.String()), nil
}

// quoteCSVField always quotes the field and doubles embedded quotes, because
// teacher comments routinely contain commas and line breaks.
func quoteCSVField(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// studentNumberValue parses the student number for numeric ordering. Numbers
// that do not parse sort first, matching a zero default.
func studentNumberValue(number string) int {
	value, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return 0
	}
	return value
}

func sortForExport(submissions []models.Submission) {
	sort.SliceStable(submissions, func(i, j int) bool {
		if submissions[i].Grade != submissions[j].Grade {
			return submissions[i].Grade < submissions[j].Grade
		}
		if submissions[i].Room != submissions[j].Room {
			return submissions[i].Room < submissions[j].Room
		}
		return studentNumberValue(submissions[i].StudentNumber) < studentNumberValue(submissions[j].StudentNumber)
	})
}

func activityLabel(activityType string) string {
	if activityType == models.ActivitySportsDay {
		return "กิจกรรมกีฬาสี 🏃"
	}
	return "กิจกรรมวันเด็ก 🎈"
}

func gradeLabel(grade string) string {
	if grade == models.GradePrathom5 {
		return "ประถมศึกษาปีที่ 5"
	}
	return "ประถมศึกษาปีที่ 6"
}

type reportRow struct {
	StudentNumber string
	Name          string
	TotalScore    string
	Percentage    string
	Comment       string
}

type reportData struct {
	Activity    string
	GradeLabel  string
	RoomLabel   string
	TeacherName string
	Date        string
	Rows        []reportRow
}

const reportTemplate = `<!DOCTYPE html>
<html lang="th">
<head>
<meta charset="utf-8">
<title>รายงานสรุปคะแนน</title>
<style>
body { font-family: 'Sarabun', sans-serif; }
.header { text-align: center; margin-bottom: 25px; }
table { width: 100%; border: 1px solid #000; border-collapse: collapse; }
th, td { border: 1px solid #000; padding: 10px; }
.signature { margin-top: 60px; text-align: right; padding-right: 60px; }
.signature div { display: inline-block; text-align: center; }
</style>
</head>
<body>
<div class="header">
<h1>รายงานสรุปคะแนนวิชาสุขศึกษาและพลศึกษา</h1>
<h2>{{.Activity}}</h2>
<p>ชั้น {{.GradeLabel}} | {{.RoomLabel}}</p>
<p>คุณครูผู้สอน: {{.TeacherName}}</p>
</div>
<table>
<thead>
<tr>
<th>เลขที่</th>
<th>ชื่อ-นามสกุล</th>
<th>คะแนน (20)</th>
<th>ร้อยละ</th>
<th>คำติชมจากคุณครู</th>
</tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
<td>{{.StudentNumber}}</td>
<td>{{.Name}}</td>
<td>{{.TotalScore}}</td>
<td>{{.Percentage}}%</td>
<td>{{.Comment}}</td>
</tr>
{{end}}
</tbody>
</table>
<div class="signature">
<div>
<p>ลงชื่อ..........................................................</p>
<p>({{.TeacherName}})</p>
<p>วันที่ออกรายงาน: {{.Date}}</p>
</div>
</div>
</body>
</html>
`
