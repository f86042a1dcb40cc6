package lmsapi

import (
	"sort"
	"time"

	"studio-server/internal/curriculum"
)

// SectionsFromDTO builds the editable tree from a course returned by the LMS,
// ordering sections and lessons by their "order" field.
func SectionsFromDTO(in []SectionDTO) []curriculum.Section {
	sorted := append([]SectionDTO(nil), in...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	out := make([]curriculum.Section, 0, len(sorted))
	for _, s := range sorted {
		lessons := append([]LessonDTO(nil), s.Lessons...)
		sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })

		sec := curriculum.Section{
			ID:       idFromWire(s.ID),
			Title:    s.Title,
			Expanded: true,
			Lessons:  make([]curriculum.Lesson, 0, len(lessons)),
		}
		for _, l := range lessons {
			sec.Lessons = append(sec.Lessons, lessonFromDTO(l))
		}
		out = append(out, sec)
	}
	return out
}

// SettingsFromDTO extracts the course metadata.
func SettingsFromDTO(c CourseDTO) curriculum.Settings {
	s := curriculum.Settings{
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		Level:         curriculum.Level(c.Level),
		Price:         c.Price,
		DurationHours: c.DurationHours,
		IsPublished:   c.IsPublished,
	}
	if s.Price == "" {
		s.Price = "0.00"
	}
	if !s.Level.Valid() {
		s.Level = curriculum.LevelBeginner
	}
	return s
}

func lessonFromDTO(l LessonDTO) curriculum.Lesson {
	t := curriculum.LessonType(l.LessonType)
	if !t.Valid() {
		t = curriculum.LessonVideo
	}

	var payloads []curriculum.Content
	if l.VideoURL != "" || l.VideoFile != "" || l.Duration != "" {
		payloads = append(payloads, &curriculum.Video{URL: l.VideoURL, File: l.VideoFile, Duration: l.Duration})
	}
	// content хранится в строке урока для любого типа, поэтому непустой текст сохраняем как статью
	if l.Content != "" {
		payloads = append(payloads, &curriculum.Article{Body: l.Content})
	}
	if l.Quiz != nil {
		payloads = append(payloads, quizFromDTO(l.Quiz))
	}
	if l.Assignment != nil {
		payloads = append(payloads, &curriculum.Assignment{
			ID:           idFromWire(l.Assignment.ID),
			Instructions: l.Assignment.Instructions,
			TotalPoints:  l.Assignment.TotalPoints,
			DueDate:      copyTime(l.Assignment.DueDate),
		})
	}

	lesson := curriculum.AssembleLesson(idFromWire(l.ID), l.Title, t, payloads...)
	lesson.Summary = l.Summary
	lesson.IsPreview = l.IsPreview
	for _, r := range l.Resources {
		lesson.Resources = append(lesson.Resources, curriculum.Resource{
			ID:       r.ID,
			Title:    r.Title,
			File:     r.File,
			FileType: r.FileType,
			FileSize: r.FileSize,
		})
	}
	return lesson
}

func quizFromDTO(q *QuizDTO) *curriculum.Quiz {
	out := &curriculum.Quiz{
		ID:        idFromWire(q.ID),
		Title:     q.Title,
		XPReward:  q.XPReward,
		Questions: make([]curriculum.Question, 0, len(q.Questions)),
	}
	for _, qu := range q.Questions {
		question := curriculum.Question{
			ID:          idFromWire(qu.ID),
			Text:        qu.Text,
			Explanation: qu.Explanation,
			Choices:     make([]curriculum.Choice, 0, len(qu.Choices)),
		}
		for _, c := range qu.Choices {
			question.Choices = append(question.Choices, curriculum.Choice{
				ID:        idFromWire(c.ID),
				Text:      c.Text,
				IsCorrect: c.IsCorrect,
			})
		}
		out.Questions = append(out.Questions, question)
	}
	return out
}

// BuildCoursePayload serialises settings and tree for POST/PUT /courses/.
// Draft ids are dropped so the LMS creates those entities, and every order
// field is taken from the entity's current position.
func BuildCoursePayload(settings curriculum.Settings, sections []curriculum.Section, publish bool) CourseDTO {
	out := CourseDTO{
		Title:         settings.Title,
		Description:   settings.Description,
		Category:      settings.Category,
		Level:         string(settings.Level),
		Price:         settings.Price,
		DurationHours: settings.DurationHours,
		IsPublished:   publish,
		Sections:      make([]SectionDTO, 0, len(sections)),
	}
	if out.Description == "" {
		out.Description = curriculum.EmptyDescription
	}
	if out.Price == "" {
		out.Price = "0.00"
	}
	for si, s := range sections {
		sec := SectionDTO{
			ID:      idToWire(s.ID),
			Title:   s.Title,
			Order:   si,
			Lessons: make([]LessonDTO, 0, len(s.Lessons)),
		}
		for li, l := range s.Lessons {
			sec.Lessons = append(sec.Lessons, lessonToDTO(l, li))
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}

func lessonToDTO(l curriculum.Lesson, order int) LessonDTO {
	out := LessonDTO{
		ID:         idToWire(l.ID),
		Title:      l.Title,
		LessonType: string(l.Type()),
		Summary:    l.Summary,
		Order:      order,
		IsPreview:  l.IsPreview,
	}
	if p, ok := l.Payload(curriculum.LessonVideo); ok {
		v := p.(*curriculum.Video)
		out.VideoURL = v.URL
		out.Duration = v.Duration
	}
	if p, ok := l.Payload(curriculum.LessonArticle); ok {
		out.Content = p.(*curriculum.Article).Body
	}
	if p, ok := l.Payload(curriculum.LessonQuiz); ok {
		out.Quiz = quizToDTO(p.(*curriculum.Quiz))
	}
	if p, ok := l.Payload(curriculum.LessonAssignment); ok {
		a := p.(*curriculum.Assignment)
		out.Assignment = &AssignmentDTO{
			ID:           idToWire(a.ID),
			Title:        l.Title,
			Instructions: a.Instructions,
			TotalPoints:  a.TotalPoints,
			DueDate:      copyTime(a.DueDate),
		}
	}
	return out
}

func quizToDTO(q *curriculum.Quiz) *QuizDTO {
	out := &QuizDTO{
		ID:        idToWire(q.ID),
		Title:     q.Title,
		XPReward:  q.XPReward,
		Questions: make([]QuestionDTO, 0, len(q.Questions)),
	}
	for _, qu := range q.Questions {
		question := QuestionDTO{
			ID:          idToWire(qu.ID),
			Text:        qu.Text,
			Explanation: qu.Explanation,
			Choices:     make([]ChoiceDTO, 0, len(qu.Choices)),
		}
		for _, c := range qu.Choices {
			question.Choices = append(question.Choices, ChoiceDTO{
				ID:        idToWire(c.ID),
				Text:      c.Text,
				IsCorrect: c.IsCorrect,
			})
		}
		out.Questions = append(out.Questions, question)
	}
	return out
}

func idToWire(id curriculum.ID) *uint64 {
	if n, ok := id.Persisted(); ok {
		return &n
	}
	return nil
}

func idFromWire(id *uint64) curriculum.ID {
	if id == nil {
		return curriculum.ID{}
	}
	return curriculum.PersistedID(*id)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
