package grading

// QuestionType selects the grading rule and the answer shape for a question.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	TrueFalse    QuestionType = "true_false"
	ShortAnswer  QuestionType = "short_answer"
	Essay        QuestionType = "essay"
	Matching     QuestionType = "matching"
	FillBlank    QuestionType = "fill_blank"
)

// MatchPair maps a left-column item to a right-column item by index.
type MatchPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// BlankKey is the reference answer for a single blank.
type BlankKey struct {
	Answer        string `json:"answer"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
}

// AnswerKey holds the instructor-authored correct response. Only the fields
// for the question's type are populated.
type AnswerKey struct {
	Correct []int       `json:"correct,omitempty"` // single/multi choice, true/false
	Text    string      `json:"text,omitempty"`    // short answer
	Pairs   []MatchPair `json:"pairs,omitempty"`   // matching
	Blanks  []BlankKey  `json:"blanks,omitempty"`  // fill-blank
}

// Question is the grading-relevant view of an authored question.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Text    string       `json:"text,omitempty"`
	Options []string     `json:"options,omitempty"`
	Points  float64      `json:"points"`
	Key     AnswerKey    `json:"answer_key,omitempty"`
}

type SelectionAnswer struct {
	Selected []int `json:"selected"`
}

type TextAnswer struct {
	Text string `json:"text"`
}

type MatchingAnswer struct {
	Pairs []MatchPair `json:"pairs"`
}

type FillBlankAnswer struct {
	Blanks []string `json:"blanks"`
}

// Answer is a tagged union: at most one variant is non-nil, and it must match
// the question's type. An Answer with no variant set is unanswered.
//
// ManualPoints carries a human grader's score for essay answers; the engine
// folds it into the aggregate but never sets it.
type Answer struct {
	Selection *SelectionAnswer `json:"selection,omitempty"`
	Text      *TextAnswer      `json:"text,omitempty"`
	Matching  *MatchingAnswer  `json:"matching,omitempty"`
	FillBlank *FillBlankAnswer `json:"fill_blank,omitempty"`

	ManualPoints   *float64 `json:"manual_points,omitempty"`
	ManualFeedback string   `json:"manual_feedback,omitempty"`
}

// Empty reports whether no response variant is present.
func (a Answer) Empty() bool {
	return a.Selection == nil && a.Text == nil && a.Matching == nil && a.FillBlank == nil
}

// variantCount is used for shape validation; a well-formed answer carries at
// most one variant.
func (a Answer) variantCount() int {
	n := 0
	if a.Selection != nil {
		n++
	}
	if a.Text != nil {
		n++
	}
	if a.Matching != nil {
		n++
	}
	if a.FillBlank != nil {
		n++
	}
	return n
}

// GradedAnswer is the engine's verdict on one answer. IsCorrect is nil when
// the question requires manual grading and no score has been supplied yet.
type GradedAnswer struct {
	IsCorrect     *bool   `json:"is_correct"`
	PointsEarned  float64 `json:"points_earned"`
	PendingManual bool    `json:"pending_manual,omitempty"`
	Feedback      string  `json:"feedback,omitempty"`
}

// GradedAttempt is the aggregate result of grading one attempt.
type GradedAttempt struct {
	Answers       []GradedAnswer `json:"answers"`
	TotalScore    float64        `json:"total_score"`
	Percentage    float64        `json:"percentage"`
	Grade         string         `json:"grade"`
	Passed        bool           `json:"passed"`
	PendingManual bool           `json:"pending_manual,omitempty"`
}
