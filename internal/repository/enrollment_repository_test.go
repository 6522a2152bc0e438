package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var enrollmentRowColumns = []string{"id", "inquiry_id", "student_name", "program_id", "counselor_id", "status", "current_step", "is_registered", "version", "created_by", "updated_by", "created_at", "updated_at"}

func TestEnrollmentRepositoryCreatePromoted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	inquiryID := "inq-1"
	enrollment := &models.Enrollment{
		ID:          "enr-1",
		InquiryID:   &inquiryID,
		StudentName: "Ada Lovelace",
		ProgramID:   "prog-1",
		Status:      workflow.StageName(1),
		CurrentStep: 1,
		CreatedBy:   "counselor@campus.test",
		CreatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollment_steps")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_steps (enrollment_id, step_number, completed, completed_at) VALUES ($1, $2, $3, $4), ($5")).
		WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_notes")).
		WithArgs(sqlmock.AnyArg(), "enr-1", "Enrollment created from inquiry for program Nursing", "Casey Counselor", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inquiries SET status = $2")).
		WithArgs("inq-1", models.InquiryStatusCompleted, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	note := &models.EnrollmentNote{Content: workflow.PromotionNote("Nursing"), AuthorName: "Casey Counselor", CreatedAt: now}
	err := repo.Create(context.Background(), CreateEnrollmentParams{
		Enrollment:    enrollment,
		Steps:         workflow.NewLedger("", now),
		Note:          note,
		InquiryStatus: models.InquiryStatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, 1, enrollment.Version)
	require.Equal(t, "enr-1", note.EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateSkipsSeededLedger(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollment_steps")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), CreateEnrollmentParams{
		Enrollment: &models.Enrollment{ID: "enr-2", StudentName: "Grace", ProgramID: "prog-1", Status: "Initial Inquiry", CurrentStep: 1},
		Steps:      workflow.NewLedger("enr-2", time.Now()),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDuplicateInquiry(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	inquiryID := "inq-1"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_inquiry_id_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), CreateEnrollmentParams{
		Enrollment: &models.Enrollment{InquiryID: &inquiryID, StudentName: "Ada", ProgramID: "prog-1", Status: "Initial Inquiry", CurrentStep: 1},
	})
	require.ErrorIs(t, err, ErrInquiryAlreadyPromoted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateOtherUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_pkey"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), CreateEnrollmentParams{
		Enrollment: &models.Enrollment{ID: "enr-dup", StudentName: "Ada", ProgramID: "prog-1", Status: "Initial Inquiry", CurrentStep: 1},
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInquiryAlreadyPromoted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApplyTransitionWithCompletion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	at := time.Date(2024, 8, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments\nSET status = $3, current_step = $4")).
		WithArgs("enr-1", 3, "Document Submission", 3, "registrar@campus.test", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_steps SET completed = TRUE, completed_at = COALESCE(completed_at, $3)")).
		WithArgs("enr-1", 2, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollment_notes")).
		WithArgs(sqlmock.AnyArg(), "enr-1", "Completed Counseling Session, now at Document Submission", "Riley Registrar", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ApplyTransition(context.Background(), TransitionParams{
		EnrollmentID:    "enr-1",
		ExpectedVersion: 3,
		Status:          "Document Submission",
		CurrentStep:     3,
		UpdatedBy:       "registrar@campus.test",
		CompleteStep:    2,
		Note:            &models.EnrollmentNote{Content: "Completed Counseling Session, now at Document Submission", AuthorName: "Riley Registrar"},
		At:              at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApplyTransitionVersionMismatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), TransitionParams{
		EnrollmentID:    "enr-1",
		ExpectedVersion: 1,
		Status:          "Counseling Session",
		CurrentStep:     2,
		Note:            &models.EnrollmentNote{Content: "Advanced"},
		At:              time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryApplyTransitionMissingStep(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollment_steps")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), TransitionParams{
		EnrollmentID:    "enr-1",
		ExpectedVersion: 1,
		Status:          "Initial Inquiry",
		CurrentStep:     1,
		CompleteStep:    4,
		At:              time.Now(),
	})
	require.ErrorIs(t, err, ErrStepNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFinalize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	at := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WithArgs("enr-1", []byte(`{"dob":"2006-01-02"}`), nil, nil, "registrar@campus.test", at, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments\nSET is_registered = TRUE")).
		WithArgs("enr-1", 7, models.StatusRegistered, "registrar@campus.test", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Finalize(context.Background(), FinalizeParams{
		EnrollmentID:    "enr-1",
		ExpectedVersion: 7,
		UpdatedBy:       "registrar@campus.test",
		Pending:         &models.Registration{Personal: []byte(`{"dob":"2006-01-02"}`)},
		At:              at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindDetailAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	now := time.Now()
	columns := append(append([]string{}, enrollmentRowColumns...), "program_name")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.inquiry_id")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("enr-1", "inq-1", "Ada", "prog-1", nil, "Counseling Session", 2, nil, 2, "a@campus.test", nil, now, now, "Nursing"))

	detail, err := repo.FindDetail(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Equal(t, "Nursing", detail.ProgramName)
	require.Equal(t, 2, detail.CurrentStep)
	require.False(t, detail.Registered())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.inquiry_id")).
		WithArgs("prog-1", 2, "%ada%").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("enr-1", "inq-1", "Ada", "prog-1", nil, "Counseling Session", 2, nil, 2, "a@campus.test", nil, now, now, "Nursing"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e WHERE e.program_id = $1")).
		WithArgs("prog-1", 2, "%ada%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EnrollmentFilter{ProgramID: "prog-1", CurrentStep: 2, Search: "Ada"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, total)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryStageCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT current_step, COUNT(*) AS total")).
		WillReturnRows(sqlmock.NewRows([]string{"current_step", "total"}).AddRow(1, 4).AddRow(3, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE is_registered IS TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	counts, registered, err := repo.StageCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, 4, counts[0].Count)
	require.Equal(t, 5, registered)
	require.NoError(t, mock.ExpectationsWereMet())
}
