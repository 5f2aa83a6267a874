package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/registry"
)

// Mock implementations for testing.

type mockOpener struct {
	data string
	err  error
}

func (m *mockOpener) Open(path string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.data)), nil
}

type mockParser struct {
	records []registry.RawRecord
	stats   registry.Stats
	err     error
}

func (m *mockParser) Parse(r io.Reader) ([]registry.RawRecord, registry.Stats, error) {
	return m.records, m.stats, m.err
}

type noopProgress struct{}

func (p *noopProgress) Stage(num, total int, msg string) {}
func (p *noopProgress) Detail(msg string)                {}
func (p *noopProgress) Warn(msg string)                  {}

type recordingProgress struct {
	stages []string
	warns  []string
}

func (p *recordingProgress) Stage(num, total int, msg string) { p.stages = append(p.stages, msg) }
func (p *recordingProgress) Detail(msg string)                {}
func (p *recordingProgress) Warn(msg string)                  { p.warns = append(p.warns, msg) }

const registryCSV = "Service Name,Port Number,Transport Protocol,Description\n" +
	"ftp-data,20,tcp,File Transfer [Default Data]\n" +
	"ftp,21,tcp,File Transfer Protocol [Control]\n" +
	"short,22\n" +
	",53,udp,\n" +
	"http,80,tcp,World Wide Web HTTP\n" +
	"x11,6000-6002,tcp,X Window System\n" +
	"www-http,80,tcp,alias\n" +
	"bogus,eighty,tcp,\n"

func TestEngine_FullPipeline(t *testing.T) {
	out := filepath.Join(t.TempDir(), "services.csv")
	cfg := Config{Source: "registry.csv", Output: out}
	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{data: registryCSV}

	result, err := Run(context.Background(), cfg, stages, &noopProgress{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "TCP,20,ftp-data\n"+
		"TCP,21,ftp\n"+
		"UDP,53,Unknown\n"+
		"TCP,80,www-http\n"+
		"TCP,6000,x11\n"+
		"TCP,6001,x11\n"+
		"TCP,6002,x11\n", string(data))

	assert.Equal(t, lookup.FormatCSV, result.Format)
	assert.Equal(t, Summary{
		RowsRead:       8,
		RecordsEmitted: 7,
		RowsSkipped:    1,
		RecordsDropped: 1,
		Entries:        7,
		Overwrites:     1,
	}, result.Summary)
	assert.Equal(t, []ProtocolStat{
		{Protocol: lookup.TCP, Standard: true, Entries: 6, Common: 4},
		{Protocol: lookup.UDP, Standard: true, Entries: 1},
	}, result.Protocols)
	assert.Equal(t, 4, result.Coverage.Covered) // 21, 80, 6000, 6001
	assert.NotZero(t, result.CompletedAt)
}

func TestEngine_SourceUnavailableWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "services.csv")
	cfg := Config{Source: filepath.Join(dir, "missing.csv"), Output: out}

	_, err := Run(context.Background(), cfg, DefaultStages(nil), &noopProgress{})
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrSourceUnavailable)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "output must not exist")
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "no temp files may be left behind")
}

func TestEngine_ReadErrorKeepsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "services.csv")
	require.NoError(t, os.WriteFile(out, []byte("TCP,80,http\n"), 0o644))

	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{}
	stages.Parser = &mockParser{err: errors.New("truncated stream")}

	_, err := Run(context.Background(), Config{Source: "r.csv", Output: out}, stages, &noopProgress{})
	require.Error(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "TCP,80,http\n", string(data))
}

func TestEngine_ReplacesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "services.csv")
	require.NoError(t, os.WriteFile(out, []byte("stale\n"), 0o644))

	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{data: registryCSV}

	_, err := Run(context.Background(), Config{Source: "r.csv", Output: out}, stages, &noopProgress{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "TCP,20,ftp-data\n"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEngine_Stdout(t *testing.T) {
	var buf bytes.Buffer
	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{data: "header\nhttp,80,tcp\n"}

	_, err := Run(context.Background(), Config{Source: "r.csv", Output: StdoutPath, Stdout: &buf}, stages, &noopProgress{})
	require.NoError(t, err)
	assert.Equal(t, "TCP,80,http\n", buf.String())
}

func TestEngine_EmptyTableWarns(t *testing.T) {
	var buf bytes.Buffer
	progress := &recordingProgress{}
	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{data: "header only\n"}

	result, err := Run(context.Background(), Config{Source: "r.csv", Output: StdoutPath, Stdout: &buf}, stages, progress)
	require.NoError(t, err)
	assert.Zero(t, result.Summary.Entries)
	assert.Len(t, progress.stages, 3)
	assert.Equal(t, []string{"Lookup table is empty"}, progress.warns)
	assert.Empty(t, buf.String())
}

func TestEngine_Cancelled(t *testing.T) {
	out := filepath.Join(t.TempDir(), "services.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{data: registryCSV}

	_, err := Run(ctx, Config{Source: "r.csv", Output: out}, stages, &noopProgress{})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEngine_MsgpackFormat(t *testing.T) {
	out := filepath.Join(t.TempDir(), "services.msgpack")
	stages := DefaultStages(nil)
	stages.Opener = &mockOpener{data: registryCSV}

	_, err := Run(context.Background(), Config{Source: "r.csv", Output: out, Format: lookup.FormatMsgpack}, stages, &noopProgress{})
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	table, err := lookup.LoadMsgpack(f)
	require.NoError(t, err)
	assert.Equal(t, 7, table.Len())
}

func TestEngine_RequiresPaths(t *testing.T) {
	_, err := Run(context.Background(), Config{Output: "x"}, DefaultStages(nil), &noopProgress{})
	assert.Error(t, err)
	_, err = Run(context.Background(), Config{Source: "x"}, DefaultStages(nil), &noopProgress{})
	assert.Error(t, err)
}

func TestProtocolStats_MarksNonStandard(t *testing.T) {
	table := lookup.NewTable()
	table.Set(lookup.Key{Port: 443, Protocol: lookup.TCP}, "https")
	table.Set(lookup.Key{Port: 7, Protocol: lookup.TCP}, "echo")
	table.Set(lookup.Key{Port: 443, Protocol: "QUIC"}, "https")
	table.Set(lookup.Key{Port: 53, Protocol: lookup.UDP}, "domain")

	assert.Equal(t, []ProtocolStat{
		{Protocol: lookup.TCP, Standard: true, Entries: 2, Common: 1},
		{Protocol: "QUIC", Entries: 1},
		{Protocol: lookup.UDP, Standard: true, Entries: 1},
	}, protocolStats(table))
}
