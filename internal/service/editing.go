package service

import (
	"context"
	"fmt"

	"studio-server/internal/curriculum"
	"studio-server/internal/lmsapi"
	"studio-server/internal/repository"
)

func requireSection(e *curriculum.Editor, id curriculum.ID) error {
	if _, ok := e.Section(id); !ok {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	return nil
}

func requireLesson(e *curriculum.Editor, id curriculum.ID) error {
	if _, ok := e.Lesson(id); !ok {
		return fmt.Errorf("%w: %s", ErrLessonNotFound, id)
	}
	return nil
}

func requireDirection(dir curriculum.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: direction must be up or down", ErrInvalidInput)
	}
	return nil
}

func (s *studioService) AddSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (curriculum.ID, *SessionView, error) {
	var id curriculum.ID
	view, err := s.edit(ctx, creds, sessionID, "add_section", func(_ *repository.Session, e *curriculum.Editor) error {
		id = e.AddSection()
		return nil
	})
	return id, view, err
}

func (s *studioService) ToggleSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "toggle_section", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireSection(e, sectionID); err != nil {
			return err
		}
		e.ToggleSection(sectionID)
		return nil
	})
}

func (s *studioService) UpdateSectionTitle(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID, title string) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "update_section_title", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireSection(e, sectionID); err != nil {
			return err
		}
		e.UpdateSectionTitle(sectionID, title)
		return nil
	})
}

func (s *studioService) DeleteSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "delete_section", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireSection(e, sectionID); err != nil {
			return err
		}
		e.DeleteSection(sectionID)
		return nil
	})
}

// MoveSection: a move past either end is accepted and changes nothing.
func (s *studioService) MoveSection(ctx context.Context, creds *lmsapi.Credentials, sessionID string, index int, dir curriculum.Direction) (*SessionView, error) {
	if err := requireDirection(dir); err != nil {
		return nil, err
	}
	return s.edit(ctx, creds, sessionID, "move_section", func(_ *repository.Session, e *curriculum.Editor) error {
		e.MoveSection(index, dir)
		return nil
	})
}

func (s *studioService) AddLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID) (curriculum.ID, *SessionView, error) {
	var id curriculum.ID
	view, err := s.edit(ctx, creds, sessionID, "add_lesson", func(_ *repository.Session, e *curriculum.Editor) error {
		var ok bool
		if id, ok = e.AddLesson(sectionID); !ok {
			return fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
		}
		return nil
	})
	return id, view, err
}

func (s *studioService) UpdateLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.LessonPatch) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "update_lesson", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.UpdateLesson(lessonID, patch)
		return nil
	})
}

func (s *studioService) DeleteLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "delete_lesson", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.DeleteLesson(lessonID)
		return nil
	})
}

func (s *studioService) MoveLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, sectionID curriculum.ID, index int, dir curriculum.Direction) (*SessionView, error) {
	if err := requireDirection(dir); err != nil {
		return nil, err
	}
	return s.edit(ctx, creds, sessionID, "move_lesson", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireSection(e, sectionID); err != nil {
			return err
		}
		e.MoveLesson(sectionID, index, dir)
		return nil
	})
}

func (s *studioService) SetLessonType(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, t curriculum.LessonType) (*SessionView, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown lesson type %q", ErrInvalidInput, t)
	}
	return s.edit(ctx, creds, sessionID, "set_lesson_type", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.SetLessonType(lessonID, t)
		return nil
	})
}

func (s *studioService) OpenLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "open_lesson", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.OpenLesson(lessonID)
		return nil
	})
}

func (s *studioService) CloseLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "close_lesson", func(_ *repository.Session, e *curriculum.Editor) error {
		e.CloseLesson()
		return nil
	})
}

// --- quiz & assignment ---

func (s *studioService) UpdateQuiz(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.QuizPatch) (*SessionView, error) {
	if patch.XPReward != nil && *patch.XPReward < 0 {
		return nil, fmt.Errorf("%w: xp reward must not be negative", ErrInvalidInput)
	}
	return s.edit(ctx, creds, sessionID, "update_quiz", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.UpdateQuiz(lessonID, patch)
		return nil
	})
}

func (s *studioService) AddQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID) (curriculum.ID, *SessionView, error) {
	var id curriculum.ID
	view, err := s.edit(ctx, creds, sessionID, "add_question", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		var ok bool
		if id, ok = e.AddQuestion(lessonID); !ok {
			return fmt.Errorf("%w: lesson %s has no quiz", ErrInvalidInput, lessonID)
		}
		return nil
	})
	return id, view, err
}

func (s *studioService) UpdateQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID, patch curriculum.QuestionPatch) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "update_question", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.UpdateQuestion(lessonID, questionID, patch)
		return nil
	})
}

func (s *studioService) RemoveQuestion(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "remove_question", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.RemoveQuestion(lessonID, questionID)
		return nil
	})
}

func (s *studioService) AddChoice(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID curriculum.ID) (curriculum.ID, *SessionView, error) {
	var id curriculum.ID
	view, err := s.edit(ctx, creds, sessionID, "add_choice", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		var ok bool
		if id, ok = e.AddChoice(lessonID, questionID); !ok {
			return fmt.Errorf("%w: question %s not found", ErrInvalidInput, questionID)
		}
		return nil
	})
	return id, view, err
}

func (s *studioService) UpdateChoiceText(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID, text string) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "update_choice", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.UpdateChoiceText(lessonID, questionID, choiceID, text)
		return nil
	})
}

func (s *studioService) RemoveChoice(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "remove_choice", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.RemoveChoice(lessonID, questionID, choiceID)
		return nil
	})
}

func (s *studioService) MarkChoiceCorrect(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID, questionID, choiceID curriculum.ID) (*SessionView, error) {
	return s.edit(ctx, creds, sessionID, "mark_choice_correct", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.MarkChoiceCorrect(lessonID, questionID, choiceID)
		return nil
	})
}

func (s *studioService) UpdateAssignment(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, patch curriculum.AssignmentPatch) (*SessionView, error) {
	if patch.TotalPoints != nil && *patch.TotalPoints < 0 {
		return nil, fmt.Errorf("%w: total points must not be negative", ErrInvalidInput)
	}
	return s.edit(ctx, creds, sessionID, "update_assignment", func(_ *repository.Session, e *curriculum.Editor) error {
		if err := requireLesson(e, lessonID); err != nil {
			return err
		}
		e.UpdateAssignment(lessonID, patch)
		return nil
	})
}
