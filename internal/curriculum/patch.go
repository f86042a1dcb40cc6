package curriculum

import "time"

// LessonPatch lists the lesson fields to overwrite; nil fields are left alone.
// Variant fields target that variant's payload whether or not it is active.
type LessonPatch struct {
	Title         *string
	Summary       *string
	IsPreview     *bool
	VideoURL      *string
	VideoDuration *string
	ArticleBody   *string
	Resources     *[]Resource
	Quiz          *Quiz
	Assignment    *Assignment
}

// UpdateLesson merges patch into the lesson with the given id.
func (e *Editor) UpdateLesson(id ID, patch LessonPatch) {
	l := e.lesson(id)
	if l == nil {
		return
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Summary != nil {
		l.Summary = *patch.Summary
	}
	if patch.IsPreview != nil {
		l.IsPreview = *patch.IsPreview
	}
	if patch.Resources != nil {
		l.Resources = append([]Resource{}, (*patch.Resources)...)
	}
	if patch.VideoURL != nil || patch.VideoDuration != nil {
		v := l.ensurePayload(LessonVideo).(*Video)
		if patch.VideoURL != nil {
			v.URL = *patch.VideoURL
		}
		if patch.VideoDuration != nil {
			v.Duration = *patch.VideoDuration
		}
	}
	if patch.ArticleBody != nil {
		l.ensurePayload(LessonArticle).(*Article).Body = *patch.ArticleBody
	}
	if patch.Quiz != nil {
		q := l.ensurePayload(LessonQuiz).(*Quiz)
		*q = *patch.Quiz.clone().(*Quiz)
	}
	if patch.Assignment != nil {
		a := l.ensurePayload(LessonAssignment).(*Assignment)
		*a = *patch.Assignment.clone().(*Assignment)
	}
}

// AppendResource attaches a resource returned by the LMS to the lesson.
func (e *Editor) AppendResource(lessonID ID, r Resource) {
	if l := e.lesson(lessonID); l != nil {
		l.Resources = append(l.Resources, r)
	}
}

// RemoveResource drops the resource from the lesson's list.
func (e *Editor) RemoveResource(lessonID ID, resourceID uint64) {
	l := e.lesson(lessonID)
	if l == nil {
		return
	}
	kept := []Resource{}
	for _, r := range l.Resources {
		if r.ID != resourceID {
			kept = append(kept, r)
		}
	}
	l.Resources = kept
}

type QuizPatch struct {
	Title    *string
	XPReward *int
}

// UpdateQuiz edits the quiz header of a lesson that has a quiz payload.
func (e *Editor) UpdateQuiz(lessonID ID, patch QuizPatch) {
	q := e.quiz(lessonID)
	if q == nil {
		return
	}
	if patch.Title != nil {
		q.Title = *patch.Title
	}
	if patch.XPReward != nil {
		q.XPReward = *patch.XPReward
	}
}

// AddQuestion appends a blank question with one choice, marked correct.
func (e *Editor) AddQuestion(lessonID ID) (ID, bool) {
	q := e.quiz(lessonID)
	if q == nil {
		return ID{}, false
	}
	id := e.ids.NewID(KindQuestion)
	q.Questions = append(q.Questions, Question{
		ID:      id,
		Choices: []Choice{{ID: e.ids.NewID(KindChoice), IsCorrect: true}},
	})
	return id, true
}

type QuestionPatch struct {
	Text        *string
	Explanation *string
}

func (e *Editor) UpdateQuestion(lessonID, questionID ID, patch QuestionPatch) {
	qu := e.question(lessonID, questionID)
	if qu == nil {
		return
	}
	if patch.Text != nil {
		qu.Text = *patch.Text
	}
	if patch.Explanation != nil {
		qu.Explanation = *patch.Explanation
	}
}

func (e *Editor) RemoveQuestion(lessonID, questionID ID) {
	q := e.quiz(lessonID)
	if q == nil {
		return
	}
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			q.Questions = append(q.Questions[:i:i], q.Questions[i+1:]...)
			return
		}
	}
}

// AddChoice appends an empty, incorrect choice to the question.
func (e *Editor) AddChoice(lessonID, questionID ID) (ID, bool) {
	qu := e.question(lessonID, questionID)
	if qu == nil {
		return ID{}, false
	}
	id := e.ids.NewID(KindChoice)
	qu.Choices = append(qu.Choices, Choice{ID: id})
	return id, true
}

func (e *Editor) UpdateChoiceText(lessonID, questionID, choiceID ID, text string) {
	qu := e.question(lessonID, questionID)
	if qu == nil {
		return
	}
	for i := range qu.Choices {
		if qu.Choices[i].ID == choiceID {
			qu.Choices[i].Text = text
			return
		}
	}
}

func (e *Editor) RemoveChoice(lessonID, questionID, choiceID ID) {
	qu := e.question(lessonID, questionID)
	if qu == nil {
		return
	}
	for i := range qu.Choices {
		if qu.Choices[i].ID == choiceID {
			qu.Choices = append(qu.Choices[:i:i], qu.Choices[i+1:]...)
			return
		}
	}
}

// MarkChoiceCorrect makes choiceID the only correct answer of its question.
func (e *Editor) MarkChoiceCorrect(lessonID, questionID, choiceID ID) {
	qu := e.question(lessonID, questionID)
	if qu == nil {
		return
	}
	found := false
	for _, c := range qu.Choices {
		if c.ID == choiceID {
			found = true
			break
		}
	}
	if !found {
		return
	}
	for i := range qu.Choices {
		qu.Choices[i].IsCorrect = qu.Choices[i].ID == choiceID
	}
}

type AssignmentPatch struct {
	Instructions *string
	TotalPoints  *int
	DueDate      *time.Time
	ClearDueDate bool
}

// UpdateAssignment edits the assignment payload of a lesson that has one.
func (e *Editor) UpdateAssignment(lessonID ID, patch AssignmentPatch) {
	l := e.lesson(lessonID)
	if l == nil {
		return
	}
	a, _ := l.payload(LessonAssignment).(*Assignment)
	if a == nil {
		return
	}
	if patch.Instructions != nil {
		a.Instructions = *patch.Instructions
	}
	if patch.TotalPoints != nil {
		a.TotalPoints = *patch.TotalPoints
	}
	if patch.ClearDueDate {
		a.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		a.DueDate = &d
	}
}

func (e *Editor) quiz(lessonID ID) *Quiz {
	l := e.lesson(lessonID)
	if l == nil {
		return nil
	}
	return l.quiz()
}

func (e *Editor) question(lessonID, questionID ID) *Question {
	q := e.quiz(lessonID)
	if q == nil {
		return nil
	}
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return &q.Questions[i]
		}
	}
	return nil
}
