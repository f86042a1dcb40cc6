package lmsapi

import "time"

// Wire shapes of the LMS course API. Ids are pointers so that entities the
// LMS has not stored yet can be sent without one.

type CourseDTO struct {
	ID               *uint64      `json:"id,omitempty"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug,omitempty"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"short_description,omitempty"`
	Category         string       `json:"category"`
	Level            string       `json:"level"`
	Language         string       `json:"language,omitempty"`
	Price            string       `json:"price"`
	DurationHours    int          `json:"duration_hours"`
	IsPublished      bool         `json:"is_published"`
	InstructorName   string       `json:"instructor_name,omitempty"`
	Sections         []SectionDTO `json:"sections"`
}

type SectionDTO struct {
	ID          *uint64     `json:"id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Order       int         `json:"order"`
	Lessons     []LessonDTO `json:"lessons"`
}

type LessonDTO struct {
	ID         *uint64        `json:"id,omitempty"`
	Title      string         `json:"title"`
	LessonType string         `json:"lesson_type"`
	VideoURL   string         `json:"video_url"`
	VideoFile  string         `json:"video_file,omitempty"`
	Content    string         `json:"content"`
	Summary    string         `json:"summary"`
	Order      int            `json:"order"`
	Duration   string         `json:"duration"`
	IsPreview  bool           `json:"is_preview"`
	Resources  []ResourceDTO  `json:"resources,omitempty"`
	Quiz       *QuizDTO       `json:"quiz,omitempty"`
	Assignment *AssignmentDTO `json:"assignment,omitempty"`
}

type QuizDTO struct {
	ID        *uint64       `json:"id,omitempty"`
	Title     string        `json:"title"`
	XPReward  int           `json:"xp_reward"`
	Questions []QuestionDTO `json:"questions"`
}

type QuestionDTO struct {
	ID          *uint64     `json:"id,omitempty"`
	Text        string      `json:"text"`
	Choices     []ChoiceDTO `json:"choices"`
	Explanation string      `json:"explanation"`
}

type ChoiceDTO struct {
	ID        *uint64 `json:"id,omitempty"`
	Text      string  `json:"text"`
	IsCorrect bool    `json:"is_correct"`
}

type AssignmentDTO struct {
	ID           *uint64    `json:"id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Instructions string     `json:"instructions"`
	TotalPoints  int        `json:"total_points"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

type ResourceDTO struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	File      string `json:"file"`
	FileType  string `json:"file_type"`
	FileSize  string `json:"file_size"`
	CreatedAt string `json:"created_at,omitempty"`
}

type videoUploadResponse struct {
	VideoURL string `json:"video_url"`
	Message  string `json:"message"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
