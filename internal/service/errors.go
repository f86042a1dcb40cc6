package service

import "errors"

var (
	ErrSessionNotFound = errors.New("studio session not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrInvalidInput    = errors.New("invalid input")
	// ErrDraftNotSaved: операция требует урок или курс, уже сохраненный в LMS.
	ErrDraftNotSaved  = errors.New("save your draft first")
	ErrSaveInProgress = errors.New("a save is already in progress for this session")
)
