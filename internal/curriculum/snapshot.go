package curriculum

// Snapshot is the serialisable state of an Editor.
type Snapshot struct {
	Sections     []Section `json:"sections"`
	OpenLessonID ID        `json:"open_lesson_id"`
}

// Snapshot captures the tree and selection. The copy shares nothing with the editor.
func (e *Editor) Snapshot() Snapshot {
	return Snapshot{Sections: e.Sections(), OpenLessonID: e.open}
}

// RestoreEditor rebuilds an editor from a snapshot without touching
// expansion flags or the selection, unlike Load.
func RestoreEditor(s Snapshot, ids IDGenerator) *Editor {
	e := NewEditor(ids)
	e.sections = make([]Section, len(s.Sections))
	for i := range s.Sections {
		e.sections[i] = s.Sections[i].clone()
	}
	if e.lesson(s.OpenLessonID) != nil {
		e.open = s.OpenLessonID
	}
	return e
}
