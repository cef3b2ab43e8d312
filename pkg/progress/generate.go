package progress

// Generate builds a fresh container from trophy definitions.
//
// Each definition gets the next position in both tables, so the definition
// and progress records at position i describe the same trophy. Every trophy
// starts locked with zero timestamps. The definition table directly follows
// the directory and the progress table follows the definition table.
func Generate(defs []Definition) *Container {
	definitions := &DefinitionTable{
		header: TableHeader{
			Kind:       KindDefinition,
			RecordSize: DefinitionPayloadSize,
			Ordinal:    1,
		},
		Records: make([]TrophyDefinition, 0, len(defs)),
	}
	progress := &ProgressTable{
		header: TableHeader{
			Kind:       KindProgress,
			RecordSize: ProgressPayloadSize,
			Ordinal:    1,
		},
		Records: make([]TrophyProgress, 0, len(defs)),
	}

	for _, def := range defs {
		definitions.Records = append(definitions.Records, TrophyDefinition{
			Kind:        KindDefinition,
			PayloadSize: DefinitionPayloadSize,
			Index:       uint32(len(definitions.Records)),
			TrophyID:    def.ID,
			Grade:       def.Grade(),
			Sentinel:    definitionSentinel,
		})
		progress.Records = append(progress.Records, TrophyProgress{
			Kind:        KindProgress,
			PayloadSize: ProgressPayloadSize,
			Index:       uint32(len(progress.Records)),
			TrophyID:    def.ID,
			State:       StateLocked,
		})
	}

	c := &Container{
		header: Header{
			Magic:   Magic,
			Version: Version,
		},
		tables:      []Table{definitions, progress},
		definitions: definitions,
		progress:    progress,
	}
	c.applyLayout()
	c.buildIndex()
	return c
}
