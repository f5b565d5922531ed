package domain

// Question is a multiple-choice question as presented to the student.
// Choices keep the order the question source returned them in.
type Question struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

// Attempt is the recorded verdict for one question slot.
type Attempt struct {
	Question Question `json:"question"`
	Answer   string   `json:"answer"`
	Correct  bool     `json:"correct"`
}

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
	// StatusFailed is the terminal error display state after a failed fetch.
	StatusFailed Status = "failed"
)

// SessionSnapshot is a copy of the controller state safe to hand to other goroutines.
type SessionSnapshot struct {
	Status     Status    `json:"status"`
	Difficulty int       `json:"difficulty"`
	Requested  int       `json:"requested"`
	Position   int       `json:"position"`
	Total      int       `json:"total"`
	Question   *Question `json:"question,omitempty"`
	Feedback   *bool     `json:"feedback,omitempty"`
	Pending    bool      `json:"pending"`
	Attempts   []Attempt `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
}

// Speaker identifies the author of a hint exchange entry.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// HintEntry is one message of a hint exchange.
type HintEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// HintSnapshot describes the hint panel.
type HintSnapshot struct {
	Open       bool        `json:"open"`
	QuestionID int         `json:"questionId"`
	Pending    bool        `json:"pending"`
	Exchange   []HintEntry `json:"exchange"`
}

// ReviewSnapshot describes the review pass over incorrectly answered questions.
type ReviewSnapshot struct {
	Index       int       `json:"index"`
	Total       int       `json:"total"`
	Question    *Question `json:"question,omitempty"`
	Explanation string    `json:"explanation"`
	Loading     bool      `json:"loading"`
	Done        bool      `json:"done"`
}

// StageKind names a stage of the per-client quiz flow.
type StageKind string

const (
	StageHome       StageKind = "home"
	StageDifficulty StageKind = "difficulty"
	StageQuantity   StageKind = "quantity"
	StageActive     StageKind = "active"
	StageFinished   StageKind = "finished"
	StageReview     StageKind = "review"
)

// FlowView is what a client renders for its current stage.
type FlowView struct {
	Stage      StageKind        `json:"stage"`
	Difficulty int              `json:"difficulty,omitempty"`
	Session    *SessionSnapshot `json:"session,omitempty"`
	Hint       *HintSnapshot    `json:"hint,omitempty"`
	Review     *ReviewSnapshot  `json:"review,omitempty"`
	Notice     string           `json:"notice,omitempty"`
}

// BankQuestion is a stored question including its answer key.
type BankQuestion struct {
	Question
	Answer     string `json:"answer"`
	Difficulty int    `json:"difficulty"`
}

// NewQuestion is an administrator submission for the question bank.
type NewQuestion struct {
	Prompt     string   `json:"prompt"`
	Choices    []string `json:"choices"`
	Answer     string   `json:"answer"`
	Difficulty int      `json:"difficulty"`
}
