package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotPublished = errors.New("quiz not published or not accessible")
	// ErrQuizLocked is returned when question edits are rejected because
	// attempts already exist against the quiz.
	ErrQuizLocked = errors.New("quiz has attempts and can no longer be modified")

	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrInvalidPayload   = errors.New("malformed request payload")
	ErrAttemptCompleted = errors.New("attempt already submitted")
	ErrAnswerNotFound   = errors.New("graded answer not found")
	ErrAnswerNotPending = errors.New("answer is not pending review")
	ErrMediaNotFound    = errors.New("media not found")
)
