package services

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

// fakeRepository is an in-memory Repository for service tests. It returns
// gorm.ErrRecordNotFound for missing rows the way the real layer does, and
// attaches Question relations on response reads to mirror preloading.
type fakeRepository struct {
	mu     sync.Mutex
	nextID uint

	// hideOpenOnce makes the next locking read miss in-progress attempts,
	// the way a concurrent transaction's uncommitted insert is invisible.
	hideOpenOnce bool

	assessments map[uint]*models.Assessment
	questions   map[uint]*models.Question
	settings    map[uint]*models.AssignmentSetting
	attempts    map[uint]*models.TestAttempt
	responses   []*models.StudentResponse
	profiles    []*models.PerformanceProfile
	stats       map[uint]*models.ClassStatistics
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		assessments: make(map[uint]*models.Assessment),
		questions:   make(map[uint]*models.Question),
		settings:    make(map[uint]*models.AssignmentSetting),
		attempts:    make(map[uint]*models.TestAttempt),
		stats:       make(map[uint]*models.ClassStatistics),
	}
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) Assessment() repositories.AssessmentRepository {
	return &fakeAssessments{f}
}
func (f *fakeRepository) Question() repositories.QuestionRepository    { return &fakeQuestions{f} }
func (f *fakeRepository) Settings() repositories.SettingsRepository    { return &fakeSettings{f} }
func (f *fakeRepository) Attempt() repositories.AttemptRepository      { return &fakeAttempts{f} }
func (f *fakeRepository) Response() repositories.ResponseRepository    { return &fakeResponses{f} }
func (f *fakeRepository) Performance() repositories.PerformanceRepository {
	return &fakePerformance{f}
}
func (f *fakeRepository) Statistics() repositories.StatisticsRepository { return &fakeStatistics{f} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== ASSESSMENTS =====

type fakeAssessments struct{ f *fakeRepository }

func (r *fakeAssessments) Create(ctx context.Context, assessment *models.Assessment) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	assessment.ID = r.f.id()
	r.f.assessments[assessment.ID] = assessment
	return nil
}

func (r *fakeAssessments) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.assessments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeAssessments) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a.Questions = nil
	for _, q := range r.sortedQuestions(id) {
		a.Questions = append(a.Questions, *q)
	}
	return a, nil
}

func (r *fakeAssessments) sortedQuestions(assessmentID uint) []*models.Question {
	var questions []*models.Question
	for _, q := range r.f.questions {
		if q.AssessmentID == assessmentID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions
}

func (r *fakeAssessments) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var all []*models.Assessment
	for _, a := range r.f.assessments {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, int64(len(all)), nil
}

func (r *fakeAssessments) Delete(ctx context.Context, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.assessments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.f.assessments, id)
	return nil
}

func (r *fakeAssessments) Exists(ctx context.Context, id uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	_, ok := r.f.assessments[id]
	return ok, nil
}

// ===== QUESTIONS =====

type fakeQuestions struct{ f *fakeRepository }

func (r *fakeQuestions) CreateBatch(ctx context.Context, questions []*models.Question) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, q := range questions {
		q.ID = r.f.id()
		r.f.questions[q.ID] = q
	}
	return nil
}

func (r *fakeQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	q, ok := r.f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *fakeQuestions) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return (&fakeAssessments{r.f}).sortedQuestions(assessmentID), nil
}

func (r *fakeQuestions) Update(ctx context.Context, question *models.Question) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.questions[question.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.f.questions[question.ID] = question
	return nil
}

func (r *fakeQuestions) CountByAssessment(ctx context.Context, assessmentID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var count int64
	for _, q := range r.f.questions {
		if q.AssessmentID == assessmentID {
			count++
		}
	}
	return count, nil
}

// ===== SETTINGS =====

type fakeSettings struct{ f *fakeRepository }

func (r *fakeSettings) GetByAssessment(ctx context.Context, assessmentID uint) (*models.AssignmentSetting, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.settings[assessmentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSettings) Upsert(ctx context.Context, setting *models.AssignmentSetting) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if setting.ID == 0 {
		setting.ID = r.f.id()
	}
	r.f.settings[setting.AssessmentID] = setting
	return nil
}

// ===== ATTEMPTS =====

type fakeAttempts struct{ f *fakeRepository }

func (r *fakeAttempts) Create(ctx context.Context, attempt *models.TestAttempt) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	// Mirrors the partial unique index on open attempts
	if attempt.Status == models.AttemptInProgress {
		for _, a := range r.f.attempts {
			if a.StudentID == attempt.StudentID && a.AssessmentID == attempt.AssessmentID && a.InProgress() {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	attempt.ID = r.f.id()
	r.f.attempts[attempt.ID] = attempt
	return nil
}

func (r *fakeAttempts) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeAttempts) Update(ctx context.Context, attempt *models.TestAttempt) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.attempts[attempt.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.f.attempts[attempt.ID] = attempt
	return nil
}

func (r *fakeAttempts) byStudentAndAssessment(studentID string, assessmentID uint) []*models.TestAttempt {
	var attempts []*models.TestAttempt
	for _, a := range r.f.attempts {
		if a.StudentID == studentID && a.AssessmentID == assessmentID {
			attempts = append(attempts, a)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].AttemptNumber < attempts[j].AttemptNumber })
	return attempts
}

func (r *fakeAttempts) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.byStudentAndAssessment(studentID, assessmentID), nil
}

func (r *fakeAttempts) GetInProgress(ctx context.Context, studentID string, assessmentID uint) (*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, a := range r.byStudentAndAssessment(studentID, assessmentID) {
		if a.InProgress() {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAttempts) ListForUpdate(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	attempts := r.byStudentAndAssessment(studentID, assessmentID)
	if r.f.hideOpenOnce {
		r.f.hideOpenOnce = false
		var visible []*models.TestAttempt
		for _, a := range attempts {
			if !a.InProgress() {
				visible = append(visible, a)
			}
		}
		attempts = visible
	}
	return attempts, nil
}

func (r *fakeAttempts) CountByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return int64(len(r.byStudentAndAssessment(studentID, assessmentID))), nil
}

func (r *fakeAttempts) CountCompleted(ctx context.Context, studentID string, assessmentID uint) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var count int64
	for _, a := range r.byStudentAndAssessment(studentID, assessmentID) {
		if a.Status == models.AttemptCompleted {
			count++
		}
	}
	return count, nil
}

// ===== RESPONSES =====

type fakeResponses struct{ f *fakeRepository }

func (r *fakeResponses) Create(ctx context.Context, response *models.StudentResponse) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	response.ID = r.f.id()
	r.f.responses = append(r.f.responses, response)
	return nil
}

func (r *fakeResponses) withQuestion(response *models.StudentResponse) *models.StudentResponse {
	if response.Question == nil {
		response.Question = r.f.questions[response.QuestionID]
	}
	return response
}

func (r *fakeResponses) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentResponse, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var result []*models.StudentResponse
	for _, resp := range r.f.responses {
		if resp.AttemptID != nil && *resp.AttemptID == attemptID {
			result = append(result, r.withQuestion(resp))
		}
	}
	return result, nil
}

func (r *fakeResponses) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.StudentResponse, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var result []*models.StudentResponse
	for _, resp := range r.f.responses {
		q := r.f.questions[resp.QuestionID]
		if resp.StudentID == studentID && q != nil && q.AssessmentID == assessmentID {
			result = append(result, r.withQuestion(resp))
		}
	}
	return result, nil
}

func (r *fakeResponses) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.StudentResponse, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var result []*models.StudentResponse
	for _, resp := range r.f.responses {
		q := r.f.questions[resp.QuestionID]
		if q != nil && q.AssessmentID == assessmentID {
			result = append(result, r.withQuestion(resp))
		}
	}
	return result, nil
}

// ===== PERFORMANCE =====

type fakePerformance struct{ f *fakeRepository }

func (r *fakePerformance) Create(ctx context.Context, profile *models.PerformanceProfile) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	profile.ID = r.f.id()
	r.f.profiles = append(r.f.profiles, profile)
	return nil
}

func (r *fakePerformance) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.PerformanceProfile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var result []*models.PerformanceProfile
	for _, p := range r.f.profiles {
		if p.AssessmentID == assessmentID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePerformance) GetByStudent(ctx context.Context, studentID string) ([]*models.PerformanceProfile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var result []*models.PerformanceProfile
	for _, p := range r.f.profiles {
		if p.StudentID == studentID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePerformance) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.PerformanceProfile, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var result []*models.PerformanceProfile
	for _, p := range r.f.profiles {
		if p.StudentID == studentID && p.AssessmentID == assessmentID {
			result = append(result, p)
		}
	}
	return result, nil
}

// ===== STATISTICS =====

type fakeStatistics struct{ f *fakeRepository }

func (r *fakeStatistics) GetByAssessment(ctx context.Context, assessmentID uint) (*models.ClassStatistics, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.stats[assessmentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeStatistics) Upsert(ctx context.Context, stats *models.ClassStatistics) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if existing, ok := r.f.stats[stats.AssessmentID]; ok {
		stats.ID = existing.ID
	} else {
		stats.ID = r.f.id()
	}
	r.f.stats[stats.AssessmentID] = stats
	return nil
}

func (r *fakeStatistics) ListAll(ctx context.Context) ([]*models.ClassStatistics, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var all []*models.ClassStatistics
	for _, s := range r.f.stats {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AssessmentID < all[j].AssessmentID })
	return all, nil
}
