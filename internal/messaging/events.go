package messaging

import (
	"time"

	"github.com/google/uuid"
)

// EventLevel is how the studio UI renders a notification.
type EventLevel string

const (
	LevelSuccess EventLevel = "success"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
	LevelInfo    EventLevel = "info"
)

// EventKind identifies what happened in a studio session.
type EventKind string

const (
	EventCourseCreated    EventKind = "course_created"
	EventCourseUpdated    EventKind = "course_updated"
	EventCoursePublished  EventKind = "course_published"
	EventSaveFailed       EventKind = "save_failed"
	EventVideoUploaded    EventKind = "video_uploaded"
	EventVideoFailed      EventKind = "video_failed"
	EventUploadRejected   EventKind = "upload_rejected"
	EventResourceAttached EventKind = "resource_attached"
	EventResourceFailed   EventKind = "resource_failed"
	EventResourceDeleted  EventKind = "resource_deleted"
	EventUploadProgress   EventKind = "upload_progress"
	EventPreviewBlocked   EventKind = "preview_blocked"
)

// StudioEvent: уведомление о результате действия в студии (toast в UI).
type StudioEvent struct {
	ID         string     `json:"id"`
	Kind       EventKind  `json:"kind"`
	Level      EventLevel `json:"level"`
	Message    string     `json:"message"`
	SessionID  string     `json:"session_id"`
	OwnerID    string     `json:"owner_id"`
	CourseID   *uint64    `json:"course_id,omitempty"`
	LessonID   string     `json:"lesson_id,omitempty"`
	Progress   *int       `json:"progress,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewStudioEvent stamps an event with a fresh id and the current time.
func NewStudioEvent(kind EventKind, level EventLevel, message string) StudioEvent {
	return StudioEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Level:      level,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}
