package http

import (
	"time"

	"studio-server/internal/curriculum"
	"studio-server/internal/service"
)

type openSessionRequest struct {
	CourseID *uint64 `json:"course_id" binding:"omitempty,gt=0"`
}

type saveRequest struct {
	Publish bool `json:"publish"`
}

type moveRequest struct {
	Index     *int   `json:"index" binding:"required,min=0"`
	Direction string `json:"direction" binding:"required,direction"`
}

// Empty titles are allowed, so only presence is required.
type titleRequest struct {
	Title *string `json:"title" binding:"required"`
}

type lessonTypeRequest struct {
	Type string `json:"type" binding:"required,lessontype"`
}

type settingsRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	Level         *string `json:"level" binding:"omitempty,courselevel"`
	Price         *string `json:"price" binding:"omitempty,numeric"`
	DurationHours *int    `json:"duration_hours" binding:"omitempty,min=0"`
}

func (r settingsRequest) patch() curriculum.SettingsPatch {
	p := curriculum.SettingsPatch{
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Price:         r.Price,
		DurationHours: r.DurationHours,
	}
	if r.Level != nil {
		level := curriculum.Level(*r.Level)
		p.Level = &level
	}
	return p
}

type lessonRequest struct {
	Title     *string `json:"title"`
	Summary   *string `json:"summary"`
	IsPreview *bool   `json:"is_preview"`
	VideoURL  *string `json:"video_url"`
	Duration  *string `json:"duration"`
	Content   *string `json:"content"`
}

func (r lessonRequest) patch() curriculum.LessonPatch {
	return curriculum.LessonPatch{
		Title:         r.Title,
		Summary:       r.Summary,
		IsPreview:     r.IsPreview,
		VideoURL:      r.VideoURL,
		VideoDuration: r.Duration,
		ArticleBody:   r.Content,
	}
}

type quizRequest struct {
	Title    *string `json:"title"`
	XPReward *int    `json:"xp_reward" binding:"omitempty,min=0"`
}

type questionRequest struct {
	Text        *string `json:"text"`
	Explanation *string `json:"explanation"`
}

type choiceRequest struct {
	Text *string `json:"text" binding:"required"`
}

type assignmentRequest struct {
	Instructions *string    `json:"instructions"`
	TotalPoints  *int       `json:"total_points" binding:"omitempty,min=0"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

func (r assignmentRequest) patch() curriculum.AssignmentPatch {
	return curriculum.AssignmentPatch{
		Instructions: r.Instructions,
		TotalPoints:  r.TotalPoints,
		DueDate:      r.DueDate,
		ClearDueDate: r.ClearDueDate,
	}
}

type createdResponse struct {
	ID      curriculum.ID        `json:"id"`
	Session *service.SessionView `json:"session"`
}

type previewResponse struct {
	Path string `json:"path"`
}
