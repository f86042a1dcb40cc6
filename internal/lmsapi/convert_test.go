package lmsapi_test

import (
	"encoding/json"
	"testing"

	"studio-server/internal/curriculum"
	"studio-server/internal/lmsapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(n uint64) *uint64 { return &n }

func TestMovedSectionsSerialiseInNewOrder(t *testing.T) {
	loaded := lmsapi.SectionsFromDTO([]lmsapi.SectionDTO{
		{ID: u64(1), Title: "A", Order: 0},
		{ID: u64(2), Title: "B", Order: 1},
	})
	e := curriculum.NewEditor(curriculum.NewSequenceGenerator())
	e.Load(loaded)
	e.MoveSection(0, curriculum.Down)

	payload := lmsapi.BuildCoursePayload(curriculum.DefaultSettings(), e.Sections(), false)

	require.Len(t, payload.Sections, 2)
	assert.Equal(t, "B", payload.Sections[0].Title)
	assert.Equal(t, 0, payload.Sections[0].Order)
	assert.Equal(t, "A", payload.Sections[1].Title)
	assert.Equal(t, 1, payload.Sections[1].Order)
}

func TestSectionsFromDTOSortsByOrder(t *testing.T) {
	sections := lmsapi.SectionsFromDTO([]lmsapi.SectionDTO{
		{ID: u64(2), Title: "second", Order: 5, Lessons: []lmsapi.LessonDTO{
			{ID: u64(22), Title: "z", LessonType: "video", Order: 3},
			{ID: u64(21), Title: "y", LessonType: "article", Content: "body", Order: 1},
		}},
		{ID: u64(1), Title: "first", Order: 2},
	})

	require.Len(t, sections, 2)
	assert.Equal(t, "first", sections[0].Title)
	assert.Equal(t, curriculum.PersistedID(2), sections[1].ID)
	require.Len(t, sections[1].Lessons, 2)
	assert.Equal(t, "y", sections[1].Lessons[0].Title)
	assert.Equal(t, curriculum.LessonArticle, sections[1].Lessons[0].Type())
	assert.Equal(t, "body", sections[1].Lessons[0].Content().(*curriculum.Article).Body)
	for _, s := range sections {
		assert.True(t, s.Expanded)
	}
}

func TestLessonFromDTOKeepsInactivePayloads(t *testing.T) {
	sections := lmsapi.SectionsFromDTO([]lmsapi.SectionDTO{{
		ID: u64(1),
		Lessons: []lmsapi.LessonDTO{{
			ID:         u64(10),
			Title:      "Checkpoint",
			LessonType: "quiz",
			VideoURL:   "https://cdn/old.mp4",
			Quiz: &lmsapi.QuizDTO{ID: u64(3), Title: "Checkpoint", XPReward: 150, Questions: []lmsapi.QuestionDTO{
				{ID: u64(7), Text: "Q", Choices: []lmsapi.ChoiceDTO{{ID: u64(70), Text: "a", IsCorrect: true}}},
			}},
		}},
	}})

	l := sections[0].Lessons[0]
	assert.Equal(t, curriculum.LessonQuiz, l.Type())
	q := l.Content().(*curriculum.Quiz)
	assert.Equal(t, curriculum.PersistedID(3), q.ID)
	assert.Equal(t, 150, q.XPReward)
	require.Len(t, q.Questions, 1)
	assert.Equal(t, curriculum.PersistedID(70), q.Questions[0].Choices[0].ID)

	v, ok := l.Payload(curriculum.LessonVideo)
	require.True(t, ok)
	assert.Equal(t, "https://cdn/old.mp4", v.(*curriculum.Video).URL)
}

func TestBuildCoursePayload(t *testing.T) {
	ids := curriculum.NewSequenceGenerator()
	e := curriculum.NewEditor(ids)
	e.Load(lmsapi.SectionsFromDTO([]lmsapi.SectionDTO{{
		ID: u64(1), Title: "Existing", Order: 0,
		Lessons: []lmsapi.LessonDTO{{ID: u64(10), Title: "Intro", LessonType: "video", VideoURL: "https://cdn/i.mp4", Duration: "12:45", Order: 0}},
	}}))
	sid := e.AddSection()
	lid, _ := e.AddLesson(sid)
	e.SetLessonType(lid, curriculum.LessonQuiz)
	qid, _ := e.AddQuestion(lid)
	e.AddChoice(lid, qid)

	settings := curriculum.DefaultSettings()
	payload := lmsapi.BuildCoursePayload(settings, e.Sections(), true)

	t.Run("course fields", func(t *testing.T) {
		assert.Nil(t, payload.ID)
		assert.Equal(t, "New UI Mastery Course", payload.Title)
		assert.Equal(t, curriculum.EmptyDescription, payload.Description)
		assert.Equal(t, "beginner", payload.Level)
		assert.Equal(t, "0.00", payload.Price)
		assert.True(t, payload.IsPublished)
	})

	t.Run("persisted ids kept, draft ids stripped", func(t *testing.T) {
		require.Len(t, payload.Sections, 2)
		require.NotNil(t, payload.Sections[0].ID)
		assert.Equal(t, uint64(1), *payload.Sections[0].ID)
		assert.Equal(t, uint64(10), *payload.Sections[0].Lessons[0].ID)
		assert.Equal(t, "https://cdn/i.mp4", payload.Sections[0].Lessons[0].VideoURL)
		assert.Equal(t, "12:45", payload.Sections[0].Lessons[0].Duration)

		draft := payload.Sections[1]
		assert.Nil(t, draft.ID)
		assert.Equal(t, 1, draft.Order)
		require.Len(t, draft.Lessons, 1)
		assert.Nil(t, draft.Lessons[0].ID)
		assert.Equal(t, "quiz", draft.Lessons[0].LessonType)
		require.NotNil(t, draft.Lessons[0].Quiz)
		require.Len(t, draft.Lessons[0].Quiz.Questions, 1)
		assert.Nil(t, draft.Lessons[0].Quiz.Questions[0].ID)
		for _, c := range draft.Lessons[0].Quiz.Questions[0].Choices {
			assert.Nil(t, c.ID)
		}
	})

	t.Run("wire json has no draft tokens", func(t *testing.T) {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "temp-")
		assert.NotContains(t, string(data), "is_expanded")
	})
}

func TestSettingsFromDTO(t *testing.T) {
	s := lmsapi.SettingsFromDTO(lmsapi.CourseDTO{Title: "Go", Level: "expert", Category: "Dev", DurationHours: 4})
	assert.Equal(t, "Go", s.Title)
	assert.Equal(t, curriculum.LevelBeginner, s.Level)
	assert.Equal(t, "0.00", s.Price)
	assert.Equal(t, 4, s.DurationHours)
}
