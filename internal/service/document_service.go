package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.EnrollmentDocument, note *models.EnrollmentNote) error
	FindByID(ctx context.Context, id string) (*models.EnrollmentDocument, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentDocument, error)
}

type documentFileStorage interface {
	Save(key string, r io.Reader) (int64, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type documentSigner interface {
	Generate(objectID string) (string, time.Time, error)
	Parse(token string) (string, time.Time, error)
}

// DocumentUpload carries the uploaded stream and its client metadata.
type DocumentUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// DocumentDownload is an opened document ready to stream.
type DocumentDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// DocumentServiceConfig holds upload limits and link settings.
type DocumentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// DocumentService stores enrollment documents and issues signed download links.
type DocumentService struct {
	repo        documentStore
	enrollments enrollmentFinder
	storage     documentFileStorage
	signer      documentSigner
	audit       auditLogger
	logger      *zap.Logger
	cfg         DocumentServiceConfig
	mimeSet     map[string]struct{}
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(repo documentStore, enrollments enrollmentFinder, storage documentFileStorage, signer documentSigner, audit auditLogger, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &DocumentService{
		repo:        repo,
		enrollments: enrollments,
		storage:     storage,
		signer:      signer,
		audit:       audit,
		logger:      logger,
		cfg:         cfg,
		mimeSet:     mimeSet,
	}
}

// Upload validates and stores a document, then records its metadata and an audit note.
func (s *DocumentService) Upload(ctx context.Context, enrollmentID string, meta dto.UploadDocumentRequest, upload DocumentUpload, actor *models.JWTClaims) (*dto.DocumentResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	docType := models.DocumentType(strings.ToUpper(string(meta.DocumentType)))
	if !docType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document type")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}

	mimeType, err := detectMime(upload.Content)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to inspect upload")
	}
	if _, allowed := s.mimeSet[mimeType]; !allowed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mime type not allowed")
	}

	key := path.Join(enrollmentID, uuid.NewString()+extensionFor(mimeType))
	size, err := s.storage.Save(key, upload.Content)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to persist document")
	}

	filename := path.Base(strings.ReplaceAll(upload.Filename, "\\", "/"))
	if filename == "." || filename == "/" || filename == "" {
		filename = path.Base(key)
	}
	doc := &models.EnrollmentDocument{
		EnrollmentID: enrollmentID,
		DocumentType: docType,
		FileName:     filename,
		FilePath:     key,
		MimeType:     mimeType,
		SizeBytes:    size,
		UploadedBy:   actor.Stamp(),
	}
	note := &models.EnrollmentNote{
		Content:    fmt.Sprintf("Uploaded %s: %s", docType, filename),
		AuthorName: actor.DisplayName(),
	}
	if err := s.repo.Create(ctx, doc, note); err != nil {
		if delErr := s.storage.Delete(key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return nil, appErrors.Internal(err, "failed to record document")
	}

	if s.audit != nil {
		userID := actor.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionDocumentUpload,
			Resource:   "enrollment_document",
			ResourceID: &doc.ID,
			NewValues:  []byte(fmt.Sprintf(`{"enrollment_id":%q,"document_type":%q}`, enrollmentID, docType)),
		}); err != nil {
			s.logger.Warn("failed to record upload audit log", zap.Error(err))
		}
	}
	return s.withLink(*doc)
}

// List returns the documents of an enrollment with fresh download links.
func (s *DocumentService) List(ctx context.Context, enrollmentID string) ([]dto.DocumentResponse, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	docs, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list documents")
	}
	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp, err := s.withLink(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Download resolves a signed token and opens the file.
func (s *DocumentService) Download(ctx context.Context, token string) (*DocumentDownload, error) {
	id, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to load document")
	}
	file, err := s.storage.Open(doc.FilePath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open document")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Internal(err, "failed to read document metadata")
	}
	return &DocumentDownload{
		File:      file,
		Filename:  doc.FileName,
		MimeType:  doc.MimeType,
		SizeBytes: info.Size(),
	}, nil
}

func (s *DocumentService) withLink(doc models.EnrollmentDocument) (*dto.DocumentResponse, error) {
	token, expiresAt, err := s.signer.Generate(doc.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.DocumentResponse{
		EnrollmentDocument: doc,
		DownloadURL:        fmt.Sprintf("%s/documents/download?token=%s", base, token),
		ExpiresAt:          expiresAt,
	}, nil
}

// detectMime sniffs the first 512 bytes and rewinds the stream.
func detectMime(r io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	mimeType := http.DetectContentType(buf[:n])
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType)), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
