package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
	"github.com/otero-ediciones/lms-api/pkg/export"
)

type exportCourseRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

type exportEnrollmentRepository interface {
	ListStudentsByCourse(ctx context.Context, courseID string) ([]models.User, error)
}

type exportLessonRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders admin course documents: the enrollment roster
// as CSV and the lesson schedule as PDF.
type ExportService struct {
	courses     exportCourseRepository
	enrollments exportEnrollmentRepository
	lessons     exportLessonRepository
	policy      *policy.Engine
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses exportCourseRepository, enrollments exportEnrollmentRepository, lessons exportLessonRepository, engine *policy.Engine, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		courses:     courses,
		enrollments: enrollments,
		lessons:     lessons,
		policy:      engine,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// CourseRoster renders the enrolled students of a course as CSV.
func (s *ExportService) CourseRoster(ctx context.Context, p models.Principal, courseID string) (*ExportFile, error) {
	course, err := s.exportableCourse(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	students, err := s.enrollments.ListStudentsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Username", "Email", "Active"},
	}
	for _, student := range students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":     student.FullName(),
			"Username": student.Username,
			"Email":    student.Email,
			"Active":   fmt.Sprintf("%t", student.Active),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("roster-%s.csv", course.ID),
		ContentType: "text/csv",
		Payload:     payload,
	}, nil
}

// CourseSchedule renders the lesson schedule of a course as PDF.
func (s *ExportService) CourseSchedule(ctx context.Context, p models.Principal, courseID string) (*ExportFile, error) {
	course, err := s.exportableCourse(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Start", "End", "Title"},
	}
	for _, lesson := range lessons {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":  lesson.Date.Format("2006-01-02"),
			"Start": stringOrDash(lesson.StartTime),
			"End":   stringOrDash(lesson.EndTime),
			"Title": lesson.Title,
		})
	}

	title := fmt.Sprintf("Schedule - %s", course.Name)
	payload, err := s.pdf.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("schedule-%s-%s.pdf", course.ID, time.Now().UTC().Format("20060102")),
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

func (s *ExportService) exportableCourse(ctx context.Context, p models.Principal, courseID string) (*models.CourseDetail, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports require admin role")
	}
	course, err := s.courses.FindDetailByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func stringOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
