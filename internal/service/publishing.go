package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-server/internal/curriculum"
	"studio-server/internal/lmsapi"
	"studio-server/internal/messaging"
	"studio-server/internal/repository"

	"go.uber.org/zap"
)

func (s *studioService) beginSave(sessionID string) bool {
	s.savingMu.Lock()
	defer s.savingMu.Unlock()
	if s.saving[sessionID] {
		return false
	}
	s.saving[sessionID] = true
	return true
}

func (s *studioService) endSave(sessionID string) {
	s.savingMu.Lock()
	delete(s.saving, sessionID)
	s.savingMu.Unlock()
}

// Save sends the curriculum as it is right now to the LMS. The session lock
// is released while the LMS works, so edits keep landing; when the LMS
// answers, its tree replaces the local one.
func (s *studioService) Save(ctx context.Context, creds *lmsapi.Credentials, sessionID string, publish bool) (*SessionView, error) {
	unlock := s.locks.Lock(sessionID)
	sess, err := s.load(ctx, creds, sessionID)
	if err != nil {
		unlock()
		return nil, err
	}
	// флаг ставится только владельцем сессии
	started := s.beginSave(sessionID)
	unlock()
	if !started {
		return nil, ErrSaveInProgress
	}
	defer s.endSave(sessionID)

	log := s.logger.With(zap.String("sessionID", sessionID), zap.Bool("publish", publish))
	payload := lmsapi.BuildCoursePayload(sess.Settings, sess.State.Sections, publish)
	created := sess.CourseID == nil

	start := time.Now()
	var saved *lmsapi.CourseDTO
	if created {
		saved, err = s.lms.CreateCourse(ctx, creds, payload)
	} else {
		saved, err = s.lms.UpdateCourse(ctx, creds, *sess.CourseID, payload)
	}
	saveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		savesTotal.WithLabelValues("error").Inc()
		log.Warn("Course save failed", zap.Error(err))
		s.notify(ctx, sess, "", messaging.EventSaveFailed, messaging.LevelError, "Failed to save.")
		return nil, fmt.Errorf("failed to save course: %w", err)
	}
	savesTotal.WithLabelValues("ok").Inc()

	view, err := s.edit(ctx, creds, sessionID, "reconcile", func(cur *repository.Session, e *curriculum.Editor) error {
		if saved.ID != nil {
			id := *saved.ID
			cur.CourseID = &id
		}
		cur.Settings.IsPublished = saved.IsPublished
		e.Reconcile(lmsapi.SectionsFromDTO(saved.Sections))
		sess = cur
		return nil
	})
	if err != nil {
		log.Warn("Course saved but session could not be reconciled", zap.Error(err))
		return nil, err
	}

	kind, message := messaging.EventCourseUpdated, "Course updated."
	if created {
		kind, message = messaging.EventCourseCreated, "Course created."
	}
	if publish {
		kind = messaging.EventCoursePublished
	}
	s.notify(ctx, sess, "", kind, messaging.LevelSuccess, message)
	log.Info("Course saved", zap.Uint64p("courseID", view.CourseID), zap.Bool("created", created))
	return view, nil
}

// persistedLesson returns the LMS id of a lesson, refusing drafts.
func (s *studioService) persistedLesson(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, rejectKind messaging.EventKind, rejectMessage string) (*repository.Session, uint64, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, creds, sessionID)
	if err != nil {
		return nil, 0, err
	}
	e := curriculum.RestoreEditor(sess.State, s.ids)
	if err := requireLesson(e, lessonID); err != nil {
		return nil, 0, err
	}
	id, ok := lessonID.Persisted()
	if !ok {
		s.notify(ctx, sess, lessonID.String(), rejectKind, messaging.LevelWarning, rejectMessage)
		return nil, 0, ErrDraftNotSaved
	}
	return sess, id, nil
}

func (s *studioService) UploadVideo(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, file lmsapi.Upload) (*SessionView, error) {
	sess, remoteID, err := s.persistedLesson(ctx, creds, sessionID, lessonID, messaging.EventUploadRejected, "Save draft before uploading video.")
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("sessionID", sessionID), zap.Uint64("lessonID", remoteID), zap.String("file", file.Name))

	var progress lmsapi.ProgressFunc
	if s.progress != nil {
		progress = func(percent int) {
			s.progress.UploadProgress(sessionID, lessonID.String(), percent)
		}
	}

	url, err := s.lms.UploadLessonVideo(ctx, creds, remoteID, file, progress)
	if err != nil {
		uploadsTotal.WithLabelValues("video", "error").Inc()
		log.Warn("Video upload failed", zap.Error(err))
		s.notify(ctx, sess, lessonID.String(), messaging.EventVideoFailed, messaging.LevelError, "Upload failed.")
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}
	uploadsTotal.WithLabelValues("video", "ok").Inc()

	view, err := s.edit(ctx, creds, sessionID, "attach_video", func(_ *repository.Session, e *curriculum.Editor) error {
		e.UpdateLesson(lessonID, curriculum.LessonPatch{VideoURL: &url})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, sess, lessonID.String(), messaging.EventVideoUploaded, messaging.LevelSuccess, "Video uploaded.")
	log.Info("Video uploaded", zap.String("url", url))
	return view, nil
}

func (s *studioService) AddResource(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, file lmsapi.Upload) (*SessionView, error) {
	sess, remoteID, err := s.persistedLesson(ctx, creds, sessionID, lessonID, messaging.EventUploadRejected, "Save draft first.")
	if err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("sessionID", sessionID), zap.Uint64("lessonID", remoteID), zap.String("file", file.Name))

	res, err := s.lms.UploadResource(ctx, creds, remoteID, file)
	if err != nil {
		uploadsTotal.WithLabelValues("resource", "error").Inc()
		log.Warn("Resource upload failed", zap.Error(err))
		s.notify(ctx, sess, lessonID.String(), messaging.EventResourceFailed, messaging.LevelError, "Resource failed.")
		return nil, fmt.Errorf("failed to upload resource: %w", err)
	}
	uploadsTotal.WithLabelValues("resource", "ok").Inc()

	view, err := s.edit(ctx, creds, sessionID, "attach_resource", func(_ *repository.Session, e *curriculum.Editor) error {
		e.AppendResource(lessonID, curriculum.Resource{
			ID:       res.ID,
			Title:    res.Title,
			File:     res.File,
			FileType: res.FileType,
			FileSize: res.FileSize,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, sess, lessonID.String(), messaging.EventResourceAttached, messaging.LevelSuccess, "Resource attached.")
	return view, nil
}

func (s *studioService) DeleteResource(ctx context.Context, creds *lmsapi.Credentials, sessionID string, lessonID curriculum.ID, resourceID uint64) (*SessionView, error) {
	unlock := s.locks.Lock(sessionID)
	sess, err := s.load(ctx, creds, sessionID)
	if err == nil {
		err = requireLesson(curriculum.RestoreEditor(sess.State, s.ids), lessonID)
	}
	unlock()
	if err != nil {
		return nil, err
	}

	if err := s.lms.DeleteResource(ctx, creds, resourceID); err != nil && !errors.Is(err, lmsapi.ErrNotFound) {
		s.logger.Warn("Resource delete failed", zap.String("sessionID", sessionID), zap.Uint64("resourceID", resourceID), zap.Error(err))
		return nil, fmt.Errorf("failed to delete resource: %w", err)
	}

	view, err := s.edit(ctx, creds, sessionID, "delete_resource", func(_ *repository.Session, e *curriculum.Editor) error {
		e.RemoveResource(lessonID, resourceID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, sess, lessonID.String(), messaging.EventResourceDeleted, messaging.LevelInfo, "Resource deleted.")
	return view, nil
}
