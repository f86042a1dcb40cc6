package curriculum

// Direction is the neighbour a section or lesson is swapped with.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) Valid() bool { return d == Up || d == Down }

// Editor owns the section/lesson tree of one course draft and the lesson
// currently open for editing. It is not safe for concurrent use.
//
// Operations addressed to an unknown id are no-ops.
type Editor struct {
	sections []Section
	open     ID
	ids      IDGenerator
}

// NewEditor returns an empty editor. ids mints draft tokens for new entities.
func NewEditor(ids IDGenerator) *Editor {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Editor{sections: []Section{}, ids: ids}
}

// BlankSections is the starting curriculum of a brand-new course:
// one section holding one video lesson.
func BlankSections(ids IDGenerator) []Section {
	return []Section{{
		ID:       ids.NewID(KindSection),
		Title:    "Welcome & Fundamentals",
		Expanded: true,
		Lessons: []Lesson{
			NewLesson(ids.NewID(KindLesson), "Course Introduction", &Video{}),
		},
	}}
}

// Sections returns a deep copy of the tree in display order.
func (e *Editor) Sections() []Section {
	out := make([]Section, len(e.sections))
	for i := range e.sections {
		out[i] = e.sections[i].clone()
	}
	return out
}

// Section returns a copy of the section with the given id.
func (e *Editor) Section(id ID) (Section, bool) {
	if i := e.sectionIndex(id); i >= 0 {
		return e.sections[i].clone(), true
	}
	return Section{}, false
}

// Lesson returns a copy of the lesson with the given id.
func (e *Editor) Lesson(id ID) (Lesson, bool) {
	if l := e.lesson(id); l != nil {
		return l.clone(), true
	}
	return Lesson{}, false
}

// OpenLessonID returns the open lesson, or the zero ID when nothing is open.
func (e *Editor) OpenLessonID() ID { return e.open }

func (e *Editor) OpenLesson(id ID) {
	if e.lesson(id) != nil {
		e.open = id
	}
}

func (e *Editor) CloseLesson() { e.open = ID{} }

// Load replaces the tree wholesale, expands every section and opens the first
// lesson of the first section when there is one.
func (e *Editor) Load(sections []Section) {
	e.sections = make([]Section, len(sections))
	for i := range sections {
		e.sections[i] = sections[i].clone()
		e.sections[i].Expanded = true
	}
	e.open = ID{}
	if len(e.sections) > 0 && len(e.sections[0].Lessons) > 0 {
		e.open = e.sections[0].Lessons[0].ID
	}
}

// Reconcile replaces the tree with the one the LMS returned after a save.
// All sections come back expanded. An open draft lesson is re-pointed at the
// lesson in the same position, which is the one the LMS created for it.
func (e *Editor) Reconcile(saved []Section) {
	open := e.open
	si, li := e.position(open)

	e.sections = make([]Section, len(saved))
	for i := range saved {
		e.sections[i] = saved[i].clone()
		e.sections[i].Expanded = true
	}

	switch {
	case open.IsZero():
	case e.lesson(open) != nil:
	case open.IsDraft() && si >= 0 && si < len(e.sections) && li < len(e.sections[si].Lessons):
		e.open = e.sections[si].Lessons[li].ID
	default:
		e.open = ID{}
	}
}

func (e *Editor) ToggleSection(id ID) {
	if i := e.sectionIndex(id); i >= 0 {
		e.sections[i].Expanded = !e.sections[i].Expanded
	}
}

// AddSection appends an expanded, empty section and returns its draft id.
func (e *Editor) AddSection() ID {
	id := e.ids.NewID(KindSection)
	e.sections = append(e.sections, Section{
		ID:       id,
		Title:    DefaultSectionTitle,
		Expanded: true,
		Lessons:  []Lesson{},
	})
	return id
}

// AddLesson appends a video lesson to the section and expands it.
// The new lesson is not opened.
func (e *Editor) AddLesson(sectionID ID) (ID, bool) {
	i := e.sectionIndex(sectionID)
	if i < 0 {
		return ID{}, false
	}
	id := e.ids.NewID(KindLesson)
	e.sections[i].Lessons = append(e.sections[i].Lessons, NewLesson(id, DefaultLessonTitle, &Video{}))
	e.sections[i].Expanded = true
	return id, true
}

// UpdateSectionTitle stores title verbatim. Empty titles are allowed.
func (e *Editor) UpdateSectionTitle(id ID, title string) {
	if i := e.sectionIndex(id); i >= 0 {
		e.sections[i].Title = title
	}
}

// DeleteSection removes the section with all its lessons. If the open lesson
// lived there, the selection is cleared.
func (e *Editor) DeleteSection(id ID) {
	i := e.sectionIndex(id)
	if i < 0 {
		return
	}
	if si, _ := e.position(e.open); si == i {
		e.open = ID{}
	}
	e.sections = append(e.sections[:i:i], e.sections[i+1:]...)
}

// DeleteLesson removes the lesson from whichever section holds it.
func (e *Editor) DeleteLesson(id ID) {
	si, li := e.position(id)
	if si < 0 {
		return
	}
	lessons := e.sections[si].Lessons
	e.sections[si].Lessons = append(lessons[:li:li], lessons[li+1:]...)
	if e.open == id {
		e.open = ID{}
	}
}

// MoveSection swaps the section at index with its neighbour. Out of range is a no-op.
func (e *Editor) MoveSection(index int, dir Direction) {
	swap(e.sections, index, dir)
}

// MoveLesson swaps a lesson with its neighbour inside one section.
func (e *Editor) MoveLesson(sectionID ID, index int, dir Direction) {
	if i := e.sectionIndex(sectionID); i >= 0 {
		swap(e.sections[i].Lessons, index, dir)
	}
}

func swap[T any](items []T, index int, dir Direction) {
	target := index - 1
	if dir == Down {
		target = index + 1
	} else if dir != Up {
		return
	}
	if index < 0 || index >= len(items) || target < 0 || target >= len(items) {
		return
	}
	items[index], items[target] = items[target], items[index]
}

// SetLessonType switches the lesson's active variant. A quiz or assignment
// payload is seeded only when the lesson never had one; payloads of the
// variant being left are kept for a later switch back.
func (e *Editor) SetLessonType(id ID, t LessonType) {
	if !t.Valid() {
		return
	}
	if l := e.lesson(id); l != nil {
		l.switchTo(t)
	}
}

func (e *Editor) sectionIndex(id ID) int {
	if id.IsZero() {
		return -1
	}
	for i := range e.sections {
		if e.sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) position(id ID) (int, int) {
	if id.IsZero() {
		return -1, -1
	}
	for si := range e.sections {
		for li := range e.sections[si].Lessons {
			if e.sections[si].Lessons[li].ID == id {
				return si, li
			}
		}
	}
	return -1, -1
}

func (e *Editor) lesson(id ID) *Lesson {
	si, li := e.position(id)
	if si < 0 {
		return nil
	}
	return &e.sections[si].Lessons[li]
}
