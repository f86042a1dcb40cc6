package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type idKind uint8

const (
	idNone idKind = iota
	idPersisted
	idDraft
)

// ID identifies a curriculum entity. A persisted entity carries the numeric id
// assigned by the LMS; an entity created in the current editing session carries
// an opaque draft token until the next successful save. The zero value is "no id".
type ID struct {
	kind  idKind
	num   uint64
	token string
}

// PersistedID returns an identifier for an entity the LMS already stores.
func PersistedID(n uint64) ID {
	return ID{kind: idPersisted, num: n}
}

// DraftID returns a client-side identifier for an unsaved entity.
func DraftID(token string) ID {
	return ID{kind: idDraft, token: token}
}

// ParseID converts a path or form value into an ID.
// Decimal digits map to a persisted id, anything else is a draft token.
func ParseID(s string) ID {
	if s == "" {
		return ID{}
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return PersistedID(n)
	}
	return DraftID(s)
}

func (id ID) IsZero() bool      { return id.kind == idNone }
func (id ID) IsDraft() bool     { return id.kind == idDraft }
func (id ID) IsPersisted() bool { return id.kind == idPersisted }

// Persisted returns the numeric LMS id, or false for draft and empty ids.
func (id ID) Persisted() (uint64, bool) {
	if id.kind != idPersisted {
		return 0, false
	}
	return id.num, true
}

func (id ID) String() string {
	switch id.kind {
	case idPersisted:
		return strconv.FormatUint(id.num, 10)
	case idDraft:
		return id.token
	default:
		return ""
	}
}

// MarshalJSON writes persisted ids as numbers, draft tokens as strings and the zero ID as null.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idPersisted:
		return []byte(strconv.FormatUint(id.num, 10)), nil
	case idDraft:
		return json.Marshal(id.token)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}
		*id = ParseID(s)
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric id %s: %w", data, err)
	}
	*id = PersistedID(n)
	return nil
}
