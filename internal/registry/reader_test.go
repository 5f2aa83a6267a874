package registry

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Service Name,Port Number,Transport Protocol,Description\n"

func TestParse_SkipsHeader(t *testing.T) {
	// The header looks exactly like data and must still be skipped.
	input := "ftp,21,tcp\nssh,22,tcp\n"

	records, stats, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ssh", records[0].Service)
	assert.Equal(t, 1, stats.Rows)
}

func TestParse_BlankFirstLineIsHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{name: "one blank line", input: "\nftp,21,tcp\nssh,22,tcp\n", wantLine: 2},
		{name: "CRLF blank line", input: "\r\nftp,21,tcp\nssh,22,tcp\n", wantLine: 2},
		{name: "several blank lines", input: "\n\n\nftp,21,tcp\nssh,22,tcp\n", wantLine: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, stats, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "ftp", records[0].Service)
			assert.Equal(t, tt.wantLine, records[0].Line)
			assert.Equal(t, "ssh", records[1].Service)
			assert.Equal(t, 2, stats.Rows)
		})
	}
}

func TestParse_TrimsFields(t *testing.T) {
	input := header + "  http , 80 ,  tcp  ,World Wide Web\n"

	records, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, RawRecord{Service: "http", PortField: "80", Protocol: "tcp", Line: 2}, records[0])
}

func TestParse_BlankServiceBecomesUnknown(t *testing.T) {
	input := header + ",53,udp\n   ,54,udp\n"

	records, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, UnknownService, r.Service)
	}
}

func TestParse_SkipsMalformedRows(t *testing.T) {
	input := header +
		"ftp,21,tcp\n" +
		"short,22\n" +
		"noport,,tcp\n" +
		"noproto,23,\n" +
		"telnet,23,tcp\n"

	records, stats, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ftp", records[0].Service)
	assert.Equal(t, "telnet", records[1].Service)

	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 2, stats.Emitted)
	assert.Equal(t, 1, stats.Short)
	assert.Equal(t, 2, stats.Empty)
	assert.Equal(t, 3, stats.Skipped())
}

func TestParse_KeepsPortFieldUnparsed(t *testing.T) {
	input := header + "x11,6000-6063,tcp\nweird,abc,udp\n"

	records, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "6000-6063", records[0].PortField)
	assert.Equal(t, "abc", records[1].PortField)
}

func TestParse_QuotedFields(t *testing.T) {
	input := header + "\"svc, with comma\",100,tcp,\"multi\nline description\"\nnext,101,udp\n"

	records, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "svc, with comma", records[0].Service)
	assert.Equal(t, "next", records[1].Service)
	assert.Equal(t, 4, records[1].Line)
}

func TestParse_HeaderOnly(t *testing.T) {
	records, stats, err := Parse(strings.NewReader(header))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, stats.Rows)
}

func TestParse_Empty(t *testing.T) {
	records, _, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_WithoutHeader(t *testing.T) {
	input := "TCP,80,http\nUDP,53,domain\n"

	records, _, err := Parse(strings.NewReader(input), WithoutHeader())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "TCP", records[0].Service)
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestParse_ReadErrorIsFatal(t *testing.T) {
	boom := errors.New("disk gone")

	_, _, err := Parse(io.MultiReader(strings.NewReader(header+"ftp,21,tcp\n"), failingReader{boom}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestReader_Streams(t *testing.T) {
	rd := NewReader(strings.NewReader(header + "a,1,tcp\nb,2\nc,3,udp\n"))

	first, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", first.Service)

	second, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, "c", second.Service)

	_, err = rd.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, rd.Stats().Short)
}
