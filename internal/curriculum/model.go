package curriculum

import (
	"encoding/json"
	"fmt"
	"time"
)

// LessonType selects which content variant of a lesson is active.
type LessonType string

const (
	LessonVideo      LessonType = "video"
	LessonArticle    LessonType = "article"
	LessonQuiz       LessonType = "quiz"
	LessonAssignment LessonType = "assignment"
)

// Valid reports whether t is one of the four known lesson types.
func (t LessonType) Valid() bool {
	switch t {
	case LessonVideo, LessonArticle, LessonQuiz, LessonAssignment:
		return true
	}
	return false
}

const (
	DefaultSectionTitle = "Untitled Section"
	DefaultLessonTitle  = "New Lesson"
	DefaultXPReward     = 100
	DefaultTotalPoints  = 100
)

// Content is the type-specific payload of a lesson.
type Content interface {
	Type() LessonType
	clone() Content
}

type Video struct {
	URL      string `json:"url"`
	File     string `json:"file,omitempty"`
	Duration string `json:"duration"`
}

type Article struct {
	Body string `json:"body"`
}

type Quiz struct {
	ID        ID         `json:"id"`
	Title     string     `json:"title"`
	XPReward  int        `json:"xp_reward"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID          ID       `json:"id"`
	Text        string   `json:"text"`
	Choices     []Choice `json:"choices"`
	Explanation string   `json:"explanation"`
}

type Choice struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Assignment struct {
	ID           ID         `json:"id"`
	Instructions string     `json:"instructions"`
	TotalPoints  int        `json:"total_points"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

func (*Video) Type() LessonType      { return LessonVideo }
func (*Article) Type() LessonType    { return LessonArticle }
func (*Quiz) Type() LessonType       { return LessonQuiz }
func (*Assignment) Type() LessonType { return LessonAssignment }

func (v *Video) clone() Content   { c := *v; return &c }
func (a *Article) clone() Content { c := *a; return &c }

func (q *Quiz) clone() Content {
	c := *q
	c.Questions = cloneQuestions(q.Questions)
	return &c
}

func (a *Assignment) clone() Content {
	c := *a
	if a.DueDate != nil {
		d := *a.DueDate
		c.DueDate = &d
	}
	return &c
}

func cloneQuestions(qs []Question) []Question {
	if qs == nil {
		return []Question{}
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q
		out[i].Choices = append([]Choice{}, q.Choices...)
	}
	return out
}

// Resource is a downloadable file attached to a persisted lesson.
type Resource struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	File     string `json:"file"`
	FileType string `json:"file_type,omitempty"`
	FileSize string `json:"file_size,omitempty"`
}

// Section is a titled, ordered group of lessons. Order is positional only.
type Section struct {
	ID       ID       `json:"id"`
	Title    string   `json:"title"`
	Expanded bool     `json:"is_expanded"`
	Lessons  []Lesson `json:"lessons"`
}

func (s Section) clone() Section {
	c := s
	c.Lessons = make([]Lesson, len(s.Lessons))
	for i := range s.Lessons {
		c.Lessons[i] = s.Lessons[i].clone()
	}
	return c
}

// Lesson holds exactly one active content variant. Payloads of variants the
// lesson was switched away from are kept aside and restored on switch back.
type Lesson struct {
	ID        ID
	Title     string
	Summary   string
	IsPreview bool
	Resources []Resource

	content Content
	parked  map[LessonType]Content
}

// NewLesson builds a lesson with the given active content.
func NewLesson(id ID, title string, content Content) Lesson {
	if content == nil {
		content = &Video{}
	}
	return Lesson{ID: id, Title: title, Resources: []Resource{}, content: content}
}

// AssembleLesson builds a lesson whose active variant is t. Payloads of other
// types are stored inactive; a missing active payload is seeded with defaults.
func AssembleLesson(id ID, title string, t LessonType, payloads ...Content) Lesson {
	l := Lesson{ID: id, Title: title, Resources: []Resource{}}
	for _, p := range payloads {
		if p == nil {
			continue
		}
		if p.Type() == t {
			l.content = p.clone()
			continue
		}
		if l.parked == nil {
			l.parked = make(map[LessonType]Content)
		}
		l.parked[p.Type()] = p.clone()
	}
	if l.content == nil {
		l.content = l.seed(t)
	}
	return l
}

// Type returns the active variant's lesson type.
func (l Lesson) Type() LessonType {
	if l.content == nil {
		return LessonVideo
	}
	return l.content.Type()
}

// Content returns a copy of the active payload.
func (l Lesson) Content() Content {
	if l.content == nil {
		return &Video{}
	}
	return l.content.clone()
}

// Payload returns a copy of the stored payload for t, active or parked.
func (l Lesson) Payload(t LessonType) (Content, bool) {
	if c := l.payload(t); c != nil {
		return c.clone(), true
	}
	return nil, false
}

func (l *Lesson) payload(t LessonType) Content {
	if l.content != nil && l.content.Type() == t {
		return l.content
	}
	return l.parked[t]
}

// ensurePayload returns the stored payload for t, creating a parked default if none exists.
func (l *Lesson) ensurePayload(t LessonType) Content {
	if c := l.payload(t); c != nil {
		return c
	}
	c := l.seed(t)
	if l.parked == nil {
		l.parked = make(map[LessonType]Content)
	}
	l.parked[t] = c
	return c
}

func (l *Lesson) seed(t LessonType) Content {
	switch t {
	case LessonArticle:
		return &Article{}
	case LessonQuiz:
		return &Quiz{Title: l.Title, XPReward: DefaultXPReward, Questions: []Question{}}
	case LessonAssignment:
		return &Assignment{TotalPoints: DefaultTotalPoints}
	default:
		return &Video{}
	}
}

func (l *Lesson) quiz() *Quiz {
	q, _ := l.payload(LessonQuiz).(*Quiz)
	return q
}

func (l *Lesson) switchTo(t LessonType) {
	if l.Type() == t && l.content != nil {
		return
	}
	next := l.payload(t)
	if next == nil {
		next = l.seed(t)
	} else {
		delete(l.parked, t)
	}
	if l.content != nil {
		if l.parked == nil {
			l.parked = make(map[LessonType]Content)
		}
		l.parked[l.content.Type()] = l.content
	}
	l.content = next
}

func (l Lesson) clone() Lesson {
	c := l
	c.Resources = append([]Resource{}, l.Resources...)
	if l.content != nil {
		c.content = l.content.clone()
	}
	if l.parked != nil {
		c.parked = make(map[LessonType]Content, len(l.parked))
		for t, p := range l.parked {
			c.parked[t] = p.clone()
		}
	}
	return c
}

type lessonJSON struct {
	ID         ID          `json:"id"`
	Title      string      `json:"title"`
	Type       LessonType  `json:"type"`
	Summary    string      `json:"summary,omitempty"`
	IsPreview  bool        `json:"is_preview"`
	Resources  []Resource  `json:"resources"`
	Video      *Video      `json:"video,omitempty"`
	Article    *Article    `json:"article,omitempty"`
	Quiz       *Quiz       `json:"quiz,omitempty"`
	Assignment *Assignment `json:"assignment,omitempty"`
}

// MarshalJSON emits the active variant under "type" together with every stored payload,
// so a snapshot restores parked data as well.
func (l Lesson) MarshalJSON() ([]byte, error) {
	out := lessonJSON{
		ID:        l.ID,
		Title:     l.Title,
		Type:      l.Type(),
		Summary:   l.Summary,
		IsPreview: l.IsPreview,
		Resources: append([]Resource{}, l.Resources...),
	}
	all := map[LessonType]Content{}
	for t, p := range l.parked {
		all[t] = p
	}
	all[l.Type()] = l.Content()
	for _, p := range all {
		switch v := p.(type) {
		case *Video:
			out.Video = v
		case *Article:
			out.Article = v
		case *Quiz:
			out.Quiz = v
		case *Assignment:
			out.Assignment = v
		}
	}
	return json.Marshal(out)
}

func (l *Lesson) UnmarshalJSON(data []byte) error {
	var in lessonJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Type == "" {
		in.Type = LessonVideo
	}
	if !in.Type.Valid() {
		return fmt.Errorf("unknown lesson type %q", in.Type)
	}
	*l = Lesson{
		ID:        in.ID,
		Title:     in.Title,
		Summary:   in.Summary,
		IsPreview: in.IsPreview,
		Resources: append([]Resource{}, in.Resources...),
	}
	stored := map[LessonType]Content{}
	if in.Video != nil {
		stored[LessonVideo] = in.Video
	}
	if in.Article != nil {
		stored[LessonArticle] = in.Article
	}
	if in.Quiz != nil {
		if in.Quiz.Questions == nil {
			in.Quiz.Questions = []Question{}
		}
		stored[LessonQuiz] = in.Quiz
	}
	if in.Assignment != nil {
		stored[LessonAssignment] = in.Assignment
	}
	if active, ok := stored[in.Type]; ok {
		l.content = active
		delete(stored, in.Type)
	} else {
		l.content = l.seed(in.Type)
	}
	if len(stored) > 0 {
		l.parked = stored
	}
	return nil
}
