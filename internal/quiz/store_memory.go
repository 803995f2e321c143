package quiz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classhub/classhub-lms/internal/grading"
)

// memoryStore mirrors SQLStore semantics without a database; used for tests
// and offline single-process runs.
type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
	now      func() time.Time
}

func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
		now:      time.Now,
	}
}

// NewInMemoryStoreAt injects the clock; tests drive timeouts with it.
func NewInMemoryStoreAt(now func() time.Time) Store {
	s := NewInMemoryStore().(*memoryStore)
	s.now = now
	return s
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) (Quiz, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Normalize()
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.QuizID == q.ID {
			return Quiz{}, ErrQuizLocked
		}
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = m.now().Unix()
	}
	m.quizzes[q.ID] = q
	return q, nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	// Copy before stripping keys; the stored quiz keeps them.
	qs := make([]grading.Question, len(q.Questions))
	copy(qs, q.Questions)
	for i := range qs {
		qs[i].Key = grading.AnswerKey{}
	}
	q.Questions = qs
	return q, nil
}

func (m *memoryStore) GetQuizAuthor(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, opts ListOpts) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Quiz
	for _, q := range m.quizzes {
		if opts.CourseID != "" && q.CourseID != opts.CourseID {
			continue
		}
		if opts.Q != "" && !strings.Contains(strings.ToLower(q.Title), strings.ToLower(opts.Q)) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) StartAttempt(_ context.Context, quizID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[quizID]
	if !ok {
		return Attempt{}, ErrQuizNotFound
	}
	used := 0
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			used++
		}
	}
	if used >= q.MaxAttempts {
		return Attempt{}, ErrAttemptLimit
	}
	a := Attempt{
		ID:            uuid.NewString(),
		QuizID:        quizID,
		UserID:        userID,
		AttemptNumber: used + 1,
		Status:        StatusInProgress,
		Answers:       make([]grading.Answer, len(q.Questions)),
		StartedAt:     m.now().Unix(),
	}
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memoryStore) SaveAnswers(_ context.Context, attemptID string, answers []grading.Answer) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status.Terminal() {
		return Attempt{}, ErrAttemptClosed
	}
	q := m.quizzes[a.QuizID]
	if len(answers) != len(q.Questions) {
		return Attempt{}, grading.ErrMalformedAttempt
	}
	a.Answers = append([]grading.Answer(nil), answers...)
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) Submit(_ context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status.Terminal() {
		return a, nil
	}
	q := m.quizzes[a.QuizID]

	res, err := grading.GradeAttempt(q.GradingView(), a.Answers)
	if err != nil {
		return Attempt{}, err
	}

	now := m.now().Unix()
	a.Status = StatusCompleted
	if q.TimeLimitSec > 0 && now > a.StartedAt+int64(q.TimeLimitSec) {
		a.Status = StatusTimeout
	}
	a.Graded = res.Answers
	a.TotalScore = res.TotalScore
	a.Percentage = res.Percentage
	a.Grade = res.Grade
	a.Passed = res.Passed
	a.PendingManual = res.PendingManual
	a.CompletedAt = now
	a.TimeSpentSec = now - a.StartedAt
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) Abandon(_ context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status.Terminal() {
		return a, nil
	}
	now := m.now().Unix()
	a.Status = StatusAbandoned
	a.CompletedAt = now
	a.TimeSpentSec = now - a.StartedAt
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) ApplyManualGrades(_ context.Context, attemptID string, updates map[string]ManualGradeInput, _ string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if !a.Status.Terminal() || a.Status == StatusAbandoned {
		return Attempt{}, ErrNotSubmitted
	}
	q := m.quizzes[a.QuizID]
	for i := range q.Questions {
		in, ok := updates[q.Questions[i].ID]
		if !ok {
			continue
		}
		if q.Questions[i].Type != grading.Essay {
			return Attempt{}, fmt.Errorf("question %s is not manually graded", q.Questions[i].ID)
		}
		pts := in.Points
		a.Answers[i].ManualPoints = &pts
		a.Answers[i].ManualFeedback = in.Feedback
	}
	res, err := grading.GradeAttempt(q.GradingView(), a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	a.Graded = res.Answers
	a.TotalScore = res.TotalScore
	a.Percentage = res.Percentage
	a.Grade = res.Grade
	a.Passed = res.Passed
	a.PendingManual = res.PendingManual
	m.attempts[attemptID] = a
	return a, nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
