package progress

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goopsie/trophyFileTools/pkg/binrec"
)

var exampleDefs = []Definition{
	{ID: 101, GradeCode: 'P'},
	{ID: 102, GradeCode: 'B'},
}

func mustMarshal(tb testing.TB, c *Container) []byte {
	tb.Helper()
	data, err := c.MarshalBinary()
	require.NoError(tb, err)
	return data
}

func mustDecode(tb testing.TB, data []byte) *Container {
	tb.Helper()
	c, err := Decode(bytes.NewReader(data))
	require.NoError(tb, err)
	return c
}

// captureLogs routes package logging to a test hook for the duration of the test.
func captureLogs(t *testing.T) *test.Hook {
	t.Helper()
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	SetLogger(l)
	t.Cleanup(func() { SetLogger(logrus.StandardLogger()) })
	return hook
}

func TestLayoutSizes(t *testing.T) {
	assert.Len(t, binrec.Marshal(&Header{}), HeaderSize)
	assert.Len(t, binrec.Marshal(&TableHeader{}), TableHeaderSize)
	assert.Len(t, binrec.Marshal(&TrophyDefinition{}), DefinitionSize)
	assert.Len(t, binrec.Marshal(&TrophyProgress{}), ProgressSize)
	assert.Equal(t, 0x50, DefinitionPayloadSize)
	assert.Equal(t, 0x60, ProgressPayloadSize)
}

func TestHeader(t *testing.T) {
	t.Run("MagicOnDisk", func(t *testing.T) {
		data := binrec.Marshal(&Header{Magic: Magic, Version: Version})
		assert.Equal(t, []byte{0x81, 0x8F, 0x54, 0xAD, 0x00, 0x01, 0x00, 0x00}, data[:8])
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := &Header{Magic: 0xDCA24D00}
		assert.ErrorIs(t, h.Validate(), ErrInvalidMagic)
	})

	t.Run("RecordRoundTrip", func(t *testing.T) {
		original := &TrophyProgress{
			Kind:        KindProgress,
			PayloadSize: ProgressPayloadSize,
			Index:       3,
			TrophyID:    7,
			State:       StateUnlocked,
			Timestamp1:  1 << 40,
			Timestamp2:  1<<40 + 1,
		}
		original.Padding[63] = 0xEE

		decoded := &TrophyProgress{}
		require.NoError(t, binrec.Unmarshal(binrec.Marshal(original), decoded))
		assert.Equal(t, original, decoded)
	})
}

func TestGradeFromCode(t *testing.T) {
	tests := []struct {
		code byte
		want Grade
	}{
		{'B', GradeBronze},
		{'S', GradeSilver},
		{'G', GradeGold},
		{'P', GradePlatinum},
		{'b', GradeUnknown},
		{'X', GradeUnknown},
		{0, GradeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFromCode(tt.code), "code %q", tt.code)
	}

	assert.Equal(t, Grade(4), GradeBronze)
	assert.Equal(t, Grade(3), GradeSilver)
	assert.Equal(t, Grade(2), GradeGold)
	assert.Equal(t, Grade(1), GradePlatinum)
}

func TestGenerate(t *testing.T) {
	c := Generate(exampleDefs)

	t.Run("Header", func(t *testing.T) {
		h := c.Header()
		assert.Equal(t, Magic, h.Magic)
		assert.Equal(t, Version, h.Version)
		assert.Equal(t, uint32(2), h.TableCount)
		assert.Zero(t, h.Reserved)
	})

	t.Run("Directory", func(t *testing.T) {
		dir := c.TableHeaders()
		require.Len(t, dir, 2)

		assert.Equal(t, TableHeader{
			Kind:         KindDefinition,
			RecordSize:   DefinitionPayloadSize,
			Ordinal:      1,
			EntriesCount: 2,
			Offset:       HeaderSize + 2*TableHeaderSize,
		}, dir[0])
		assert.Equal(t, TableHeader{
			Kind:         KindProgress,
			RecordSize:   ProgressPayloadSize,
			Ordinal:      1,
			EntriesCount: 2,
			Offset:       HeaderSize + 2*TableHeaderSize + 2*DefinitionSize,
		}, dir[1])
	})

	t.Run("Records", func(t *testing.T) {
		defs := c.Definitions()
		require.Len(t, defs, 2)
		assert.Equal(t, TrophyDefinition{
			Kind: KindDefinition, PayloadSize: DefinitionPayloadSize,
			Index: 0, TrophyID: 101, Grade: GradePlatinum, Sentinel: 0xFFFFFFFF,
		}, defs[0])
		assert.Equal(t, TrophyDefinition{
			Kind: KindDefinition, PayloadSize: DefinitionPayloadSize,
			Index: 1, TrophyID: 102, Grade: GradeBronze, Sentinel: 0xFFFFFFFF,
		}, defs[1])

		prog := c.Progress()
		require.Len(t, prog, 2)
		assert.Equal(t, TrophyProgress{
			Kind: KindProgress, PayloadSize: ProgressPayloadSize,
			Index: 0, TrophyID: 101, State: StateLocked,
		}, prog[0])
		assert.Equal(t, TrophyProgress{
			Kind: KindProgress, PayloadSize: ProgressPayloadSize,
			Index: 1, TrophyID: 102, State: StateLocked,
		}, prog[1])
	})

	t.Run("PositionalCorrespondence", func(t *testing.T) {
		var defs []Definition
		for i := range 50 {
			defs = append(defs, Definition{ID: uint32(1000 - i), GradeCode: "BSGP"[i%4]})
		}
		g := Generate(defs)
		require.Equal(t, len(defs), g.TrophyCount())
		for i := range defs {
			assert.Equal(t, g.Definitions()[i].TrophyID, g.Progress()[i].TrophyID)
			pos, ok := g.Position(defs[i].ID)
			require.True(t, ok)
			assert.Equal(t, i, pos)
		}
	})

	t.Run("ExampleScenario", func(t *testing.T) {
		g := Generate(exampleDefs)
		require.NoError(t, g.UnlockTrophy(0, 1000, 2000))

		state, err := g.UnlockState(0)
		require.NoError(t, err)
		assert.Equal(t, StateUnlocked, state)

		ts, err := g.UnlockTimestamp(0)
		require.NoError(t, err)
		assert.Equal(t, uint64(2000), ts)

		first, second, err := g.Timestamps(0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), first)
		assert.Equal(t, uint64(2000), second)

		state, err = g.UnlockState(1)
		require.NoError(t, err)
		assert.Equal(t, StateLocked, state)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		generated := Generate(exampleDefs)
		parsed := mustDecode(t, mustMarshal(t, generated))
		assert.Equal(t, generated, parsed)
	})

	t.Run("Empty", func(t *testing.T) {
		generated := Generate(nil)
		parsed := mustDecode(t, mustMarshal(t, generated))
		assert.Equal(t, generated.TableHeaders(), parsed.TableHeaders())
		assert.Zero(t, parsed.TrophyCount())
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TROPUSR.DAT")
		generated := Generate(exampleDefs)
		require.NoError(t, generated.Save(path))

		parsed, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, generated, parsed)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, raw, HeaderSize+2*TableHeaderSize+2*DefinitionSize+2*ProgressSize)
	})

	t.Run("BitForBit", func(t *testing.T) {
		data := mustMarshal(t, Generate(exampleDefs))
		again := mustMarshal(t, mustDecode(t, data))
		assert.Equal(t, data, again)
	})

	t.Run("MutationSurvivesSave", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "TROPUSR.DAT")
		c := Generate(exampleDefs)
		require.NoError(t, c.UnlockTrophy(1, 11, 22))
		require.NoError(t, c.Save(path))

		parsed, err := Open(path)
		require.NoError(t, err)
		state, err := parsed.UnlockState(1)
		require.NoError(t, err)
		assert.Equal(t, StateUnlocked, state)
		assert.Equal(t, 1, parsed.UnlockedCount())
	})
}

func TestDecode(t *testing.T) {
	valid := mustMarshal(t, Generate(exampleDefs))

	corrupt := func(fn func(data []byte)) []byte {
		data := append([]byte(nil), valid...)
		fn(data)
		return data
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "InvalidMagic",
			data: corrupt(func(d []byte) { d[0] = 0x00 }),
			want: ErrInvalidMagic,
		},
		{
			name: "AbsurdTableCount",
			data: corrupt(func(d []byte) { binary.BigEndian.PutUint32(d[8:12], 0xFFFFFFFF) }),
			want: ErrMalformed,
		},
		{
			name: "TableBeyondFile",
			data: corrupt(func(d []byte) {
				binary.BigEndian.PutUint64(d[DirectoryOffset+16:DirectoryOffset+24], uint64(len(d)))
			}),
			want: ErrMalformed,
		},
		{
			name: "EntriesCountBeyondFile",
			data: corrupt(func(d []byte) {
				binary.BigEndian.PutUint32(d[DirectoryOffset+12:DirectoryOffset+16], 1000)
			}),
			want: ErrMalformed,
		},
		{
			name: "WrongRecordSize",
			data: corrupt(func(d []byte) {
				binary.BigEndian.PutUint32(d[DirectoryOffset+4:DirectoryOffset+8], 0x40)
			}),
			want: ErrMalformed,
		},
		{
			name: "WrongRecordType",
			data: corrupt(func(d []byte) {
				off := HeaderSize + 2*TableHeaderSize
				binary.BigEndian.PutUint32(d[off:off+4], 6)
			}),
			want: ErrMalformed,
		},
		{
			name: "DuplicateTable",
			data: corrupt(func(d []byte) {
				copy(d[DirectoryOffset+TableHeaderSize:DirectoryOffset+2*TableHeaderSize],
					d[DirectoryOffset:DirectoryOffset+TableHeaderSize])
			}),
			want: ErrMalformed,
		},
		{
			name: "TruncatedHeader",
			data: valid[:HeaderSize-4],
			want: io.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, c, "no partial container")
		})
	}

	t.Run("UnmarshalLeavesTargetOnFailure", func(t *testing.T) {
		c := Generate(exampleDefs)
		before := mustMarshal(t, c)
		err := c.UnmarshalBinary(corrupt(func(d []byte) { d[1] = 0 }))
		assert.ErrorIs(t, err, ErrInvalidMagic)
		assert.Equal(t, before, mustMarshal(t, c))
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestOpaqueTable(t *testing.T) {
	hook := captureLogs(t)

	c := Generate(exampleDefs)
	raw := bytes.Repeat([]byte{0xA5}, 2*(0x20+RecordHeaderSize))
	c.tables = append(c.tables, &OpaqueTable{
		header: TableHeader{Kind: 9, RecordSize: 0x20, Ordinal: 1, EntriesCount: 2},
		Raw:    raw,
	})
	c.applyLayout()

	parsed := mustDecode(t, mustMarshal(t, c))
	require.Len(t, parsed.Tables(), 3)
	assert.Equal(t, uint32(3), parsed.Header().TableCount)

	opaque, ok := parsed.Tables()[2].(*OpaqueTable)
	require.True(t, ok)
	assert.Equal(t, raw, opaque.Raw)
	assert.Equal(t, 2, opaque.Len())
	assert.Equal(t, "unknown(9)", opaque.Header().Kind.String())
	assert.Equal(t, 2, parsed.TrophyCount())

	var found bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "undecoded") {
			found = true
		}
	}
	assert.True(t, found, "undecoded table is logged")
}

func TestUnlockTrophy(t *testing.T) {
	t.Run("InRange", func(t *testing.T) {
		c := Generate(exampleDefs)
		for i := range c.TrophyCount() {
			require.NoError(t, c.UnlockTrophy(i, 5, 6))
			state, err := c.UnlockState(i)
			require.NoError(t, err)
			assert.Equal(t, StateUnlocked, state)
		}
		assert.Equal(t, 2, c.UnlockedCount())
	})

	t.Run("LatestWins", func(t *testing.T) {
		c := Generate(exampleDefs)
		require.NoError(t, c.UnlockTrophy(1, 1, 2))
		require.NoError(t, c.UnlockTrophy(1, 3, 4))

		first, second, err := c.Timestamps(1)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), first)
		assert.Equal(t, uint64(4), second)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		hook := captureLogs(t)
		c := Generate(exampleDefs)
		before := mustMarshal(t, c)

		for _, i := range []int{-1, 2, 100} {
			err := c.UnlockTrophy(i, 1, 2)
			assert.ErrorIs(t, err, ErrOutOfRange)
		}
		assert.Equal(t, before, mustMarshal(t, c), "nothing mutated")

		_, err := c.UnlockState(2)
		assert.ErrorIs(t, err, ErrOutOfRange)
		_, err = c.UnlockTimestamp(2)
		assert.ErrorIs(t, err, ErrOutOfRange)
		_, err = c.Grade(2)
		assert.ErrorIs(t, err, ErrOutOfRange)

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})

	t.Run("ByID", func(t *testing.T) {
		c := Generate(exampleDefs)
		require.NoError(t, c.UnlockTrophyByID(102, 7, 8))
		state, err := c.UnlockState(1)
		require.NoError(t, err)
		assert.Equal(t, StateUnlocked, state)

		assert.ErrorIs(t, c.UnlockTrophyByID(999, 7, 8), ErrOutOfRange)
	})
}

func TestGradeLookupByID(t *testing.T) {
	hook := captureLogs(t)

	c := Generate(exampleDefs)
	p := c.progress.Records
	p[0], p[1] = p[1], p[0]

	parsed := mustDecode(t, mustMarshal(t, c))

	grade, err := parsed.Grade(0)
	require.NoError(t, err)
	assert.Equal(t, GradeBronze, grade, "position 0 holds trophy 102 in the progress table")

	grade, err = parsed.Grade(1)
	require.NoError(t, err)
	assert.Equal(t, GradePlatinum, grade)

	pos, ok := parsed.Position(101)
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "out of order") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestDuplicateTrophyIDs(t *testing.T) {
	hook := captureLogs(t)

	c := Generate([]Definition{{ID: 7, GradeCode: 'P'}, {ID: 7, GradeCode: 'B'}})

	grade, err := c.Grade(0)
	require.NoError(t, err)
	assert.Equal(t, GradePlatinum, grade)
	grade, err = c.Grade(1)
	require.NoError(t, err)
	assert.Equal(t, GradeBronze, grade)

	pos, ok := c.Position(7)
	require.True(t, ok)
	assert.Equal(t, 0, pos, "first position holding the id wins")

	require.NoError(t, c.UnlockTrophyByID(7, 1, 2))
	state, err := c.UnlockState(0)
	require.NoError(t, err)
	assert.Equal(t, StateUnlocked, state)
	state, err = c.UnlockState(1)
	require.NoError(t, err)
	assert.Equal(t, StateLocked, state)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "duplicate trophy id 7") {
			warned = true
		}
	}
	assert.True(t, warned)

	t.Run("AfterDecode", func(t *testing.T) {
		parsed := mustDecode(t, mustMarshal(t, c))
		grade, err := parsed.Grade(0)
		require.NoError(t, err)
		assert.Equal(t, GradePlatinum, grade)
		pos, ok := parsed.Position(7)
		require.True(t, ok)
		assert.Equal(t, 0, pos)
	})
}

const tropconf = `<?xml version="1.0" encoding="UTF-8"?>
<!--Sce-Np-Trophy-Signature: 0000-->
<trophyconf version="1.1">
  <npcommid>NPWR00000_00</npcommid>
  <trophyset-version>01.00</trophyset-version>
  <title-name>Test Title</title-name>
  <trophy id="000" hidden="no" ttype="P" pid="000"><name>All</name><detail>Everything</detail></trophy>
  <trophy id="001" hidden="no" ttype="B" pid="000"><name>First</name></trophy>
  <trophy id="002" hidden="yes" ttype="G" pid="000"><name>Second</name></trophy>
  <trophy id="003" hidden="no" ttype="S"/>
</trophyconf>
`

func TestDefinitions(t *testing.T) {
	t.Run("ReadDefinitions", func(t *testing.T) {
		defs, err := ReadDefinitions(strings.NewReader(tropconf))
		require.NoError(t, err)
		assert.Equal(t, []Definition{
			{ID: 0, GradeCode: 'P'},
			{ID: 1, GradeCode: 'B'},
			{ID: 2, GradeCode: 'G'},
			{ID: 3, GradeCode: 'S'},
		}, defs)
	})

	t.Run("NodesKeepOrder", func(t *testing.T) {
		nodes, err := ReadNodes(strings.NewReader(tropconf))
		require.NoError(t, err)
		require.Len(t, nodes, 7)
		assert.Equal(t, "npcommid", nodes[0].Name())
		assert.Equal(t, "trophy", nodes[3].Name())

		hidden, ok := nodes[5].Attr("hidden")
		assert.True(t, ok)
		assert.Equal(t, "yes", hidden)
	})

	t.Run("MissingGrade", func(t *testing.T) {
		defs, err := ReadDefinitions(strings.NewReader(`<trophyconf><trophy id="5"/></trophyconf>`))
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, GradeUnknown, defs[0].Grade())
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := ReadDefinitions(strings.NewReader(`<trophyconf><trophy ttype="B"/></trophyconf>`))
		assert.ErrorIs(t, err, ErrDefinitions)
	})

	t.Run("BadID", func(t *testing.T) {
		_, err := ReadDefinitions(strings.NewReader(`<trophyconf><trophy id="x1" ttype="B"/></trophyconf>`))
		assert.ErrorIs(t, err, ErrDefinitions)
	})

	t.Run("BrokenXML", func(t *testing.T) {
		_, err := ReadDefinitions(strings.NewReader(`<trophyconf><trophy id="1"`))
		assert.ErrorIs(t, err, ErrDefinitions)
	})

	t.Run("NoRoot", func(t *testing.T) {
		_, err := ReadDefinitions(strings.NewReader(``))
		assert.ErrorIs(t, err, ErrDefinitions)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ReadDefinitionsFile(filepath.Join(t.TempDir(), "TROPCONF.SFM"))
		assert.ErrorIs(t, err, ErrDefinitions)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

type countingPersister struct {
	calls int
}

func (p *countingPersister) Persist(path string, c *Container) error {
	p.calls++
	return FullRewrite{}.Persist(path, c)
}

func TestLoad(t *testing.T) {
	writeConf := func(t *testing.T, dir string) string {
		path := filepath.Join(dir, "TROPCONF.SFM")
		require.NoError(t, os.WriteFile(path, []byte(tropconf), 0644))
		return path
	}

	t.Run("GeneratesMissingFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "TROPUSR.DAT")
		p := &countingPersister{}

		c, err := Load(path, WithDefinitions(writeConf(t, dir)), WithPersister(p))
		require.NoError(t, err)
		assert.Equal(t, 1, p.calls)
		assert.Equal(t, 4, c.TrophyCount())
		assert.FileExists(t, path)

		grade, err := c.Grade(0)
		require.NoError(t, err)
		assert.Equal(t, GradePlatinum, grade)
	})

	t.Run("ExistingFileIsNotRegenerated", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "TROPUSR.DAT")
		existing := Generate(exampleDefs)
		require.NoError(t, existing.UnlockTrophy(0, 1, 2))
		require.NoError(t, existing.Save(path))

		p := &countingPersister{}
		c, err := Load(path, WithDefinitions(writeConf(t, dir)), WithPersister(p))
		require.NoError(t, err)
		assert.Zero(t, p.calls)
		assert.Equal(t, 2, c.TrophyCount())
		assert.Equal(t, 1, c.UnlockedCount())
	})

	t.Run("MissingWithoutDefinitions", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "TROPUSR.DAT"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("BadDefinitions", func(t *testing.T) {
		dir := t.TempDir()
		conf := filepath.Join(dir, "TROPCONF.SFM")
		require.NoError(t, os.WriteFile(conf, []byte(`<trophyconf><trophy id="?"/></trophyconf>`), 0644))
		path := filepath.Join(dir, "TROPUSR.DAT")

		_, err := Load(path, WithDefinitions(conf))
		assert.ErrorIs(t, err, ErrDefinitions)
		assert.NoFileExists(t, path)
	})
}
