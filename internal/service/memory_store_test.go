package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
)

// memoryStore mimics the enrollment tables closely enough to exercise the
// transactional repository contracts: version guards, the inquiry uniqueness
// constraint and the registered lock.
type memoryStore struct {
	mu            sync.Mutex
	seq           int
	programs      map[string]string
	inquiries     map[string]*models.InquiryDetail
	enrollments   map[string]*models.Enrollment
	steps         map[string][]models.EnrollmentStep
	notes         map[string][]models.EnrollmentNote
	registrations map[string]*models.Registration
	audits        []*models.AuditLog

	applyErr      error
	hiddenLookups int
	creates       int
	transitions   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		programs:      map[string]string{"prog-cs": "Computer Science"},
		inquiries:     map[string]*models.InquiryDetail{},
		enrollments:   map[string]*models.Enrollment{},
		steps:         map[string][]models.EnrollmentStep{},
		notes:         map[string][]models.EnrollmentNote{},
		registrations: map[string]*models.Registration{},
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) addInquiry(id, student string) {
	m.inquiries[id] = &models.InquiryDetail{
		Inquiry:     models.Inquiry{ID: id, StudentName: student, ProgramID: "prog-cs", Status: models.InquiryStatusContacted},
		ProgramName: m.programs["prog-cs"],
	}
}

func (m *memoryStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (m *memoryStore) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.EnrollmentDetail{Enrollment: *e, ProgramName: m.programs[e.ProgramID]}, nil
}

func (m *memoryStore) FindByInquiryID(ctx context.Context, inquiryID string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hiddenLookups > 0 {
		m.hiddenLookups--
		return nil, sql.ErrNoRows
	}
	for _, e := range m.enrollments {
		if e.InquiryID != nil && *e.InquiryID == inquiryID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) ProgramName(ctx context.Context, programID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.programs[programID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return name, nil
}

func (m *memoryStore) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if filter.Registered != nil && e.Registered() != *filter.Registered {
			continue
		}
		if filter.CurrentStep != 0 && e.CurrentStep != filter.CurrentStep {
			continue
		}
		all = append(all, models.EnrollmentDetail{Enrollment: *e, ProgramName: m.programs[e.ProgramID]})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	p := models.NewPagination(filter.Page, filter.PageSize, len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memoryStore) Create(ctx context.Context, params repository.CreateEnrollmentParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	e := params.Enrollment
	if e.InquiryID != nil {
		for _, other := range m.enrollments {
			if other.InquiryID != nil && *other.InquiryID == *e.InquiryID {
				return repository.ErrInquiryAlreadyPromoted
			}
		}
	}
	if e.ID == "" {
		e.ID = m.nextID("enr")
	}
	e.Version = 1
	e.UpdatedAt = e.CreatedAt
	cp := *e
	m.enrollments[e.ID] = &cp
	if len(m.steps[e.ID]) == 0 {
		for _, s := range params.Steps {
			s.EnrollmentID = e.ID
			m.steps[e.ID] = append(m.steps[e.ID], s)
		}
	}
	if params.Note != nil {
		m.appendNote(e.ID, *params.Note)
	}
	if params.InquiryStatus != "" && e.InquiryID != nil {
		if inq, ok := m.inquiries[*e.InquiryID]; ok {
			inq.Status = params.InquiryStatus
		}
	}
	return nil
}

func (m *memoryStore) ApplyTransition(ctx context.Context, params repository.TransitionParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	e, ok := m.enrollments[params.EnrollmentID]
	if !ok || e.Version != params.ExpectedVersion || e.Registered() {
		return sql.ErrNoRows
	}
	if params.CompleteStep > 0 {
		idx := m.stepIndex(params.EnrollmentID, params.CompleteStep)
		if idx < 0 {
			return repository.ErrStepNotFound
		}
		step := &m.steps[params.EnrollmentID][idx]
		step.Completed = true
		if step.CompletedAt == nil {
			at := params.At
			step.CompletedAt = &at
		}
	}
	m.transitions++
	e.Status = params.Status
	e.CurrentStep = params.CurrentStep
	e.UpdatedBy = &params.UpdatedBy
	e.UpdatedAt = params.At
	e.Version++
	if params.Note != nil {
		m.appendNote(params.EnrollmentID, *params.Note)
	}
	return nil
}

func (m *memoryStore) Finalize(ctx context.Context, params repository.FinalizeParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[params.EnrollmentID]
	if !ok || e.Version != params.ExpectedVersion || e.Registered() {
		return sql.ErrNoRows
	}
	reg := m.registrations[params.EnrollmentID]
	if reg == nil {
		reg = &models.Registration{EnrollmentID: params.EnrollmentID}
		m.registrations[params.EnrollmentID] = reg
	}
	if params.Pending != nil {
		mergeRegistration(reg, params.Pending)
	}
	if reg.CompletedAt == nil {
		at := params.At
		reg.CompletedAt = &at
	}
	registered := true
	e.IsRegistered = &registered
	e.Status = models.StatusRegistered
	e.UpdatedBy = &params.UpdatedBy
	e.Version++
	if params.Note != nil {
		m.appendNote(params.EnrollmentID, *params.Note)
	}
	return nil
}

func (m *memoryStore) StageCounts(ctx context.Context) ([]models.StageCount, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStep := map[int]int{}
	registered := 0
	for _, e := range m.enrollments {
		if e.Registered() {
			registered++
			continue
		}
		byStep[e.CurrentStep]++
	}
	var out []models.StageCount
	for step, n := range byStep {
		out = append(out, models.StageCount{StepNumber: step, Count: n})
	}
	return out, registered, nil
}

func (m *memoryStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, log)
	return nil
}

func (m *memoryStore) appendNote(enrollmentID string, note models.EnrollmentNote) {
	note.ID = m.nextID("note")
	note.EnrollmentID = enrollmentID
	m.notes[enrollmentID] = append(m.notes[enrollmentID], note)
}

func (m *memoryStore) stepIndex(enrollmentID string, number int) int {
	for i, s := range m.steps[enrollmentID] {
		if s.StepNumber == number {
			return i
		}
	}
	return -1
}

func (m *memoryStore) dropStep(enrollmentID string, number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.stepIndex(enrollmentID, number); idx >= 0 {
		steps := m.steps[enrollmentID]
		m.steps[enrollmentID] = append(steps[:idx:idx], steps[idx+1:]...)
	}
}

func (m *memoryStore) seedEnrollment(step int, registered bool) *models.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID("enr")
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e := &models.Enrollment{
		ID:          id,
		StudentName: "Seeded Student",
		ProgramID:   "prog-cs",
		Status:      workflow.StageName(step),
		CurrentStep: step,
		Version:     1,
		CreatedAt:   now,
	}
	if registered {
		v := true
		e.IsRegistered = &v
		e.Status = models.StatusRegistered
	}
	m.enrollments[id] = e
	m.steps[id] = workflow.NewLedger(id, now)
	return e
}

func mergeRegistration(dst, src *models.Registration) {
	if src.Personal != nil {
		dst.Personal = src.Personal
	}
	if src.Academic != nil {
		dst.Academic = src.Academic
	}
	if src.Payment != nil {
		dst.Payment = src.Payment
	}
}

type memorySteps struct{ *memoryStore }

func (s memorySteps) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EnrollmentStep(nil), s.steps[enrollmentID]...), nil
}

func (s memorySteps) InsertMissing(ctx context.Context, steps []models.EnrollmentStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, step := range steps {
		if s.stepIndex(step.EnrollmentID, step.StepNumber) < 0 {
			s.steps[step.EnrollmentID] = append(s.steps[step.EnrollmentID], step)
		}
	}
	return nil
}

type memoryNotes struct{ *memoryStore }

func (n memoryNotes) Create(ctx context.Context, note *models.EnrollmentNote) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.appendNote(note.EnrollmentID, *note)
	note.ID = n.notes[note.EnrollmentID][len(n.notes[note.EnrollmentID])-1].ID
	return nil
}

func (n memoryNotes) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentNote, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	src := n.notes[enrollmentID]
	out := make([]models.EnrollmentNote, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

type memoryRegistrations struct{ *memoryStore }

func (r memoryRegistrations) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[enrollmentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *reg
	return &cp, nil
}

func (r memoryRegistrations) Upsert(ctx context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.registrations[reg.EnrollmentID]
	if existing == nil {
		existing = &models.Registration{EnrollmentID: reg.EnrollmentID}
		r.registrations[reg.EnrollmentID] = existing
	}
	mergeRegistration(existing, reg)
	existing.UpdatedBy = reg.UpdatedBy
	existing.UpdatedAt = reg.UpdatedAt
	return nil
}

type memoryInquiries struct{ *memoryStore }

func (q memoryInquiries) FindByID(ctx context.Context, id string) (*models.InquiryDetail, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	inq, ok := q.inquiries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *inq
	return &cp, nil
}

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) Schedule(enrollmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, enrollmentID)
}

type memoryCache struct {
	entries     map[string]interface{}
	setErr      error
	gets        int
	hits        int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]interface{}{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	if summary, ok := v.(*models.PipelineSummary); ok {
		*(dest.(*models.PipelineSummary)) = *summary
	}
	return true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.invalidated++
	return nil
}

var testActor = &models.JWTClaims{UserID: "user-1", Email: "counselor@campus.test", FullName: "Dana Counselor", Role: models.RoleCounselor}

func newTestEnrollmentService(store *memoryStore, repairs ledgerRepairScheduler, cache summaryCache) *EnrollmentService {
	svc := NewEnrollmentService(store, memorySteps{store}, memoryNotes{store}, repairs, cache, nil, nil, nil, EnrollmentServiceConfig{})
	svc.now = fixedClock()
	return svc
}

// fixedClock advances one second per call so note order is deterministic.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
