package domain

import "errors"

var (
	// ErrQuestionFetch is returned when the question batch could not be loaded.
	ErrQuestionFetch = errors.New("could not load questions")
	// ErrInvalidDifficulty indicates a difficulty level outside the offered range.
	ErrInvalidDifficulty = errors.New("unsupported difficulty level")
	// ErrInvalidCount indicates an unsupported question count.
	ErrInvalidCount = errors.New("unsupported question count")
	// ErrSessionStarted is returned when start is requested on a running session.
	ErrSessionStarted = errors.New("quiz session already started")
	// ErrNotActive is returned when an answer arrives outside the active state.
	ErrNotActive = errors.New("quiz session is not active")
	// ErrVerificationPending is returned while the current answer is being verified.
	ErrVerificationPending = errors.New("verification already in flight")
	// ErrAlreadyAnswered is returned while the feedback for the current question is shown.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrSessionClosed is returned once the controller has been torn down.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrMalformedAnswer indicates the answer text does not match the expected format.
	ErrMalformedAnswer = errors.New("malformed answer")

	ErrHintPending  = errors.New("hint request already in flight")
	ErrHintClosed   = errors.New("hint panel is closed")
	ErrEmptyMessage = errors.New("message is empty")

	// ErrReviewComplete is returned when the review has no current question.
	ErrReviewComplete = errors.New("review complete")
	// ErrInvalidStage is returned when an operation does not apply to the current stage.
	ErrInvalidStage = errors.New("operation not allowed in current stage")

	// ErrQuestionNotFound indicates an unknown question identifier.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuestions indicates that no question matches the requested difficulty.
	ErrNoQuestions = errors.New("no questions found for this difficulty")
	// ErrInvalidQuestion indicates a rejected question in a batch upload.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrTutorUnavailable indicates the hint/explanation generator failed.
	ErrTutorUnavailable = errors.New("tutor unavailable")
	// ErrUnauthorized is returned when a privileged call has no usable credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the credential lacks the administrator role.
	ErrForbidden = errors.New("forbidden")
)
