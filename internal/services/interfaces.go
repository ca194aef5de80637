package services

import (
	"context"
	"time"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

// ===== REQUEST/RESPONSE DTOs =====

type CreateAssessmentRequest struct {
	Topic        string  `json:"topic" validate:"required,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=5000"`
	BloomLevel   string  `json:"bloom_level" validate:"required,bloom_level"`
	NumQuestions int     `json:"num_questions" validate:"required,min=1,max=50"`
	TeacherID    *string `json:"teacher_id" validate:"omitempty,max=255"`
	PDFContent   *string `json:"pdf_content"`
}

type AssessmentSettingsRequest struct {
	DueDate          *time.Time `json:"due_date"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" validate:"omitempty,gt=0"`

	// MaxAttempts of zero means unlimited.
	MaxAttempts            *int  `json:"max_attempts" validate:"omitempty,gte=0"`
	RetakeAllowed          *bool `json:"retake_allowed"`
	ShowResultsImmediately *bool `json:"show_results_immediately"`
	ShuffleQuestions       *bool `json:"shuffle_questions"`
}

// QuestionView is the student-facing shape of a question. It never carries
// the answer key.
type QuestionView struct {
	ID         uint                   `json:"id"`
	Text       string                 `json:"text"`
	Type       models.QuestionType    `json:"type"`
	Difficulty models.DifficultyLevel `json:"difficulty"`
	BloomLevel models.BloomLevel      `json:"bloom_level"`
	Options    map[string]string      `json:"options,omitempty"`
}

// TeacherQuestionView additionally exposes the grading key.
type TeacherQuestionView struct {
	QuestionView
	AnswerKey models.AnswerKey `json:"answer_key"`
}

type AssessmentResponse struct {
	ID            uint                      `json:"id"`
	Topic         string                    `json:"topic"`
	Description   string                    `json:"description,omitempty"`
	BloomLevel    models.BloomLevel         `json:"bloom_level"`
	TeacherID     *string                   `json:"teacher_id,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	QuestionCount int                       `json:"question_count"`
	Questions     []QuestionView            `json:"questions,omitempty"`
	Settings      *models.AssignmentSetting `json:"settings,omitempty"`
}

type TeacherAssessmentResponse struct {
	ID          uint                      `json:"id"`
	Topic       string                    `json:"topic"`
	Description string                    `json:"description,omitempty"`
	BloomLevel  models.BloomLevel         `json:"bloom_level"`
	TeacherID   *string                   `json:"teacher_id,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	Questions   []TeacherQuestionView     `json:"questions"`
	Settings    *models.AssignmentSetting `json:"assignment_settings,omitempty"`
}

type AssessmentListResponse struct {
	Assessments []*AssessmentResponse `json:"assessments"`
	Total       int64                 `json:"total"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

// ===== ATTEMPT RELATED DTOs =====

type StartAttemptResult struct {
	Attempt *models.TestAttempt `json:"attempt"`

	// Resumed is true when an open attempt already existed and was
	// returned instead of a new one.
	Resumed bool `json:"resumed"`

	// RemainingAttempts counts starts still available after this one,
	// nil when the policy is unlimited or retakes are allowed.
	RemainingAttempts *int `json:"remaining_attempts,omitempty"`
}

type SubmitResponseRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Response   string `json:"response" validate:"required"`
	Confused   bool   `json:"confused"`

	// Client-reported presentation timing, optional.
	ShownAt    *time.Time `json:"shown_at"`
	AnsweredAt *time.Time `json:"answered_at"`
}

type SubmitResponseResult struct {
	ResponseID uint `json:"response_id"`
	Correct    bool `json:"correct"`

	// CorrectAnswer is revealed only for incorrect submissions, and only
	// when the assignment policy shows results immediately.
	CorrectAnswer models.AnswerKey `json:"correct_answer,omitempty"`
}

type CompleteAttemptResult struct {
	Attempt          *models.TestAttempt `json:"attempt"`
	TotalScore       float64             `json:"total_score"`
	MaxPossibleScore float64             `json:"max_possible_score"`
	Percentage       float64             `json:"percentage"`

	Performance *PerformanceSummary `json:"performance,omitempty"`

	// AlreadyCompleted marks an idempotent re-completion.
	AlreadyCompleted bool `json:"already_completed,omitempty"`
}

// ===== PERFORMANCE RELATED DTOs =====

type PerformanceSummary struct {
	ProfileID          uint           `json:"profile_id"`
	TotalCorrect       int            `json:"total_correct"`
	TotalIncorrect     int            `json:"total_incorrect"`
	Accuracy           float64        `json:"accuracy"`
	AvgTimePerQuestion float64        `json:"avg_time_per_question"`
	WeakAreas          map[string]int `json:"weak_areas"`
	StartedAt          time.Time      `json:"started_at"`
	CompletedAt        time.Time      `json:"completed_at"`
	DurationSeconds    float64        `json:"duration_seconds"`
}

type TrendPoint struct {
	AssessmentID uint      `json:"assessment_id"`
	Topic        string    `json:"topic"`
	Accuracy     float64   `json:"accuracy"`
	CompletedAt  time.Time `json:"completed_at"`
}

type AttemptInfo struct {
	AttemptNumber    int      `json:"attempt_number"`
	TotalScore       *float64 `json:"total_score"`
	MaxPossibleScore *float64 `json:"max_possible_score"`
}

type AssessmentResult struct {
	AssessmentID     uint              `json:"assessment_id"`
	Topic            string            `json:"topic"`
	BloomLevel       models.BloomLevel `json:"bloom_level"`
	CompletedAt      time.Time         `json:"completed_at"`
	Accuracy         float64           `json:"accuracy"`
	TimeTakenSeconds float64           `json:"time_taken_seconds"`
	WeakAreas        map[string]int    `json:"weak_areas"`
	AttemptInfo      *AttemptInfo      `json:"attempt_info,omitempty"`
}

type PerformanceReport struct {
	TotalAssessments int                `json:"total_assessments"`
	AverageAccuracy  float64            `json:"average_accuracy"`
	TotalTimeSpent   float64            `json:"total_time_spent"`
	ImprovementTrend []TrendPoint       `json:"improvement_trend"`
	WeakAreasSummary map[string]int     `json:"weak_areas_summary"`
	Assessments      []AssessmentResult `json:"assessments"`
}

type StudentStatistics struct {
	StudentID        string             `json:"student_id"`
	TotalAssessments int                `json:"total_assessments"`
	AverageAccuracy  float64            `json:"average_accuracy"`
	WeakAreasSummary map[string]int     `json:"weak_areas_summary"`
	Assessments      []AssessmentResult `json:"assessments"`
}

// AttemptControl summarizes the attempt policy state for one student on
// one assessment.
type AttemptControl struct {
	MaxAttempts       int  `json:"max_attempts"`
	AttemptsUsed      int  `json:"attempts_used"`
	RemainingAttempts *int `json:"remaining_attempts"`
	RetakeAllowed     bool `json:"retake_allowed"`
	CanStart          bool `json:"can_start"`
}

type StudentAssessmentPerformance struct {
	StudentID      string               `json:"student_id"`
	AssessmentID   uint                 `json:"assessment_id"`
	Topic          string               `json:"topic"`
	Attempts       []AttemptInfo        `json:"attempts"`
	Profiles       []PerformanceSummary `json:"profiles"`
	BestAccuracy   float64              `json:"best_accuracy"`
	LatestAccuracy float64              `json:"latest_accuracy"`
	AttemptControl AttemptControl       `json:"attempt_control"`
}

// ===== STATISTICS RELATED DTOs =====

type StatisticsDetail struct {
	TotalStudents       int                              `json:"total_students"`
	CompletedStudents   int                              `json:"completed_students"`
	AverageScore        float64                          `json:"average_score"`
	PassRate            float64                          `json:"pass_rate"`
	AverageTimeSeconds  float64                          `json:"average_time_seconds"`
	DifficultyBreakdown map[string]models.BreakdownEntry `json:"difficulty_breakdown"`
	BloomLevelBreakdown map[string]models.BreakdownEntry `json:"bloom_level_breakdown"`
	QuestionPerformance map[string]models.QuestionStat   `json:"question_performance"`
	GeneratedAt         time.Time                        `json:"generated_at"`
}

type ClassStatisticsResponse struct {
	AssessmentID    uint              `json:"assessment_id"`
	AssessmentTitle string            `json:"assessment_title"`
	Statistics      *StatisticsDetail `json:"statistics"`
}

type AssessmentOverviewEntry struct {
	AssessmentID      uint      `json:"assessment_id"`
	Topic             string    `json:"topic"`
	StudentsCompleted int       `json:"students_completed"`
	AverageScore      float64   `json:"average_score"`
	PassRate          float64   `json:"pass_rate"`
	CreatedAt         time.Time `json:"created_at"`
}

type StatisticsOverview struct {
	TotalAssessments          int                       `json:"total_assessments"`
	TotalStudentsEnrolled     int                       `json:"total_students_enrolled"`
	TotalAssessmentsCompleted int                       `json:"total_assessments_completed"`
	OverallAverageScore       float64                   `json:"overall_average_score"`
	OverallPassRate           float64                   `json:"overall_pass_rate"`
	Assessments               []AssessmentOverviewEntry `json:"assessments"`
}

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest) (*AssessmentResponse, error)
	GetByID(ctx context.Context, id uint) (*AssessmentResponse, error)
	GetTeacherView(ctx context.Context, id uint) (*TeacherAssessmentResponse, error)
	List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	Delete(ctx context.Context, id uint) error

	UpsertSettings(ctx context.Context, assessmentID uint, req *AssessmentSettingsRequest) (*models.AssignmentSetting, error)
	GetSettings(ctx context.Context, assessmentID uint) (*models.AssignmentSetting, error)

	RegenerateQuestion(ctx context.Context, questionID uint) (*TeacherQuestionView, error)
}

type AttemptService interface {
	Start(ctx context.Context, assessmentID uint, studentID string) (*StartAttemptResult, error)
	SubmitResponse(ctx context.Context, attemptID uint, studentID string, req *SubmitResponseRequest) (*SubmitResponseResult, error)
	Complete(ctx context.Context, attemptID uint, studentID string) (*CompleteAttemptResult, error)

	// CompleteFreeForm finalizes practice activity recorded outside the
	// formal attempt lifecycle, building a performance profile directly
	// from the student's response history for the assessment. A non-nil
	// attemptID restricts the history to that attempt.
	CompleteFreeForm(ctx context.Context, assessmentID uint, studentID string, attemptID *uint) (*PerformanceSummary, error)

	RemainingAttempts(ctx context.Context, assessmentID uint, studentID string) (*AttemptControl, error)
}

type GradingService interface {
	// Grade evaluates a raw submission against the question's answer key.
	// Unparseable numeric input grades incorrect rather than failing.
	Grade(question *models.Question, submitted string) (bool, error)
}

type PerformanceService interface {
	// BuildProfile aggregates graded responses into a performance profile
	// snapshot. The profile is not persisted by this call.
	BuildProfile(studentID string, assessmentID uint, attemptID *uint, responses []*models.StudentResponse) (*models.PerformanceProfile, error)

	Summarize(profile *models.PerformanceProfile) (*PerformanceSummary, error)
}

type StatisticsService interface {
	// Recompute rebuilds the assessment's class statistics row from all
	// performance profiles. No row is written when no profiles exist.
	Recompute(ctx context.Context, assessmentID uint) error

	Get(ctx context.Context, assessmentID uint) (*ClassStatisticsResponse, error)
	Overview(ctx context.Context) (*StatisticsOverview, error)

	// Export renders the assessment's statistics as an xlsx workbook.
	Export(ctx context.Context, assessmentID uint) ([]byte, error)
}

type StudentService interface {
	GetStatistics(ctx context.Context, studentID string) (*StudentStatistics, error)
	GetPerformanceReport(ctx context.Context, studentID string) (*PerformanceReport, error)
	GetAssessmentPerformance(ctx context.Context, studentID string, assessmentID uint) (*StudentAssessmentPerformance, error)
	ListAttempts(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Assessment() AssessmentService
	Attempt() AttemptService
	Grading() GradingService
	Performance() PerformanceService
	Statistics() StatisticsService
	Student() StudentService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
