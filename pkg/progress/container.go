package progress

import (
	"fmt"
)

// Container is an in-memory progress container.
//
// A Container is owned by a single caller; concurrent use must be
// serialised externally.
type Container struct {
	header Header
	tables []Table

	definitions *DefinitionTable
	progress    *ProgressTable

	// trophy id -> position in the definition table
	definitionIndex map[uint32]int
	// trophy id -> position in the progress table
	progressIndex map[uint32]int
}

// Header returns a copy of the container header.
func (c *Container) Header() Header {
	return c.header
}

// Tables returns the tables in directory order.
func (c *Container) Tables() []Table {
	return c.tables
}

// TableHeaders returns the table directory.
func (c *Container) TableHeaders() []TableHeader {
	headers := make([]TableHeader, len(c.tables))
	for i, t := range c.tables {
		headers[i] = t.Header()
	}
	return headers
}

// Definitions returns the kind 4 records, or nil if the container has none.
func (c *Container) Definitions() []TrophyDefinition {
	if c.definitions == nil {
		return nil
	}
	return c.definitions.Records
}

// Progress returns the kind 6 records, or nil if the container has none.
func (c *Container) Progress() []TrophyProgress {
	if c.progress == nil {
		return nil
	}
	return c.progress.Records
}

// TrophyCount returns the number of progress records.
func (c *Container) TrophyCount() int {
	return len(c.Progress())
}

// UnlockedCount returns how many trophies are unlocked.
func (c *Container) UnlockedCount() int {
	n := 0
	for _, p := range c.Progress() {
		if p.State == StateUnlocked {
			n++
		}
	}
	return n
}

// Position returns the progress table position of the trophy with the given id.
func (c *Container) Position(trophyID uint32) (int, bool) {
	i, ok := c.progressIndex[trophyID]
	return i, ok
}

// UnlockState returns the unlock state of the trophy at position i.
func (c *Container) UnlockState(i int) (State, error) {
	p, err := c.record(i, "UnlockState")
	if err != nil {
		return StateLocked, err
	}
	return p.State, nil
}

// Timestamps returns both unlock timestamps of the trophy at position i.
func (c *Container) Timestamps(i int) (first, second uint64, err error) {
	p, err := c.record(i, "Timestamps")
	if err != nil {
		return 0, 0, err
	}
	return p.Timestamp1, p.Timestamp2, nil
}

// UnlockTimestamp returns the timestamp reported for the trophy at position i.
// This is the second timestamp field; use Timestamps for both.
func (c *Container) UnlockTimestamp(i int) (uint64, error) {
	_, second, err := c.Timestamps(i)
	return second, err
}

// Grade returns the grade of the trophy at position i.
// The definition at the same position is used when it carries the same
// trophy id; otherwise the definition is found by trophy id.
func (c *Container) Grade(i int) (Grade, error) {
	p, err := c.record(i, "Grade")
	if err != nil {
		return GradeUnknown, err
	}
	if defs := c.Definitions(); i < len(defs) && defs[i].TrophyID == p.TrophyID {
		return defs[i].Grade, nil
	}
	d, ok := c.definitionIndex[p.TrophyID]
	if !ok {
		return GradeUnknown, fmt.Errorf("trophy %d: no definition record", p.TrophyID)
	}
	return c.definitions.Records[d].Grade, nil
}

// UnlockTrophy marks the trophy at position i as unlocked with the given
// timestamps. Out of range positions return ErrOutOfRange and change nothing.
func (c *Container) UnlockTrophy(i int, timestamp1, timestamp2 uint64) error {
	p, err := c.record(i, "UnlockTrophy")
	if err != nil {
		return err
	}
	p.State = StateUnlocked
	p.Timestamp1 = timestamp1
	p.Timestamp2 = timestamp2
	return nil
}

// UnlockTrophyByID unlocks the trophy with the given trophy id.
// If the id is duplicated, the first position holding it is unlocked.
func (c *Container) UnlockTrophyByID(trophyID uint32, timestamp1, timestamp2 uint64) error {
	i, ok := c.Position(trophyID)
	if !ok {
		return fmt.Errorf("%w: no trophy with id %d", ErrOutOfRange, trophyID)
	}
	return c.UnlockTrophy(i, timestamp1, timestamp2)
}

func (c *Container) record(i int, op string) (*TrophyProgress, error) {
	if i < 0 || i >= c.TrophyCount() {
		logger.Warnf("%s: invalid id=%d (trophy count %d)", op, i, c.TrophyCount())
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, c.TrophyCount())
	}
	return &c.progress.Records[i], nil
}

// bindTables records the typed tables. A container holds at most one table of
// each typed kind.
func (c *Container) bindTables() error {
	c.definitions = nil
	c.progress = nil
	for _, t := range c.tables {
		switch t := t.(type) {
		case *DefinitionTable:
			if c.definitions != nil {
				return fmt.Errorf("%w: duplicate definition table", ErrMalformed)
			}
			c.definitions = t
		case *ProgressTable:
			if c.progress != nil {
				return fmt.Errorf("%w: duplicate progress table", ErrMalformed)
			}
			c.progress = t
		case *OpaqueTable:
		}
	}
	c.buildIndex()
	return nil
}

// buildIndex maps trophy ids to positions. The first position holding an id
// wins. It warns about duplicated ids and about positions where the two
// tables disagree on the trophy.
func (c *Container) buildIndex() {
	c.definitionIndex = indexByID("definition", c.Definitions(), func(d TrophyDefinition) uint32 { return d.TrophyID })
	c.progressIndex = indexByID("progress", c.Progress(), func(p TrophyProgress) uint32 { return p.TrophyID })

	defs := c.Definitions()
	for i, p := range c.Progress() {
		if i < len(defs) && defs[i].TrophyID != p.TrophyID {
			logger.Warnf("trophy tables out of order at position %d: definition id %d, progress id %d",
				i, defs[i].TrophyID, p.TrophyID)
		}
	}
}

func indexByID[T any](table string, records []T, id func(T) uint32) map[uint32]int {
	index := make(map[uint32]int, len(records))
	for i, r := range records {
		key := id(r)
		if first, ok := index[key]; ok {
			logger.Warnf("duplicate trophy id %d in %s table at positions %d and %d", key, table, first, i)
			continue
		}
		index[key] = i
	}
	return index
}
