package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello

2
00:00:03,000 --> 00:00:04,000
World
across two lines

3
00:00:05,500 --> 00:00:06,250
Goodbye
`

func TestParseSRT(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sampleSRT), FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Units, 3)

	assert.Equal(t, 1, doc.Units[0].Index)
	assert.Equal(t, time.Second, doc.Units[0].StartTime)
	assert.Equal(t, 2*time.Second, doc.Units[0].EndTime)
	assert.Equal(t, "Hello", doc.Units[0].Text)

	assert.Equal(t, "World\nacross two lines", doc.Units[1].Text)

	assert.Equal(t, 5*time.Second+500*time.Millisecond, doc.Units[2].StartTime)
	assert.Equal(t, "Goodbye", doc.Units[2].Text)

	assert.Equal(t, []string{"Hello", "World\nacross two lines", "Goodbye"}, doc.Texts())
}

func TestParseSRT_FinalCueWithoutTrailingSeparator(t *testing.T) {
	t.Parallel()

	raw := "1\n00:00:01,000 --> 00:00:02,000\nHello"
	doc, err := Parse([]byte(raw), FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, "Hello", doc.Units[0].Text)
}

func TestParseSRT_BOMAndCRLF(t *testing.T) {
	t.Parallel()

	raw := "\xEF\xBB\xBF1\r\n00:00:01,000 --> 00:00:02,000\r\nHello\r\n\r\n"
	doc, err := Parse([]byte(raw), FormatSRT)
	require.NoError(t, err)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, "Hello", doc.Units[0].Text)
}

func TestParseSRT_BadIndex(t *testing.T) {
	t.Parallel()

	raw := "not-a-number\n00:00:01,000 --> 00:00:02,000\nHello\n"
	_, err := Parse([]byte(raw), FormatSRT)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
}

func TestParseSRT_MissingTimestamp(t *testing.T) {
	t.Parallel()

	raw := "1\nHello there\n\n"
	_, err := Parse([]byte(raw), FormatSRT)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Msg, "invalid time format")
}

func TestParseSRT_InvalidUTF8(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte{0xff, 0xfe, 0x00}, FormatSRT)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSerializeSRT_RoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sampleSRT), FormatSRT)
	require.NoError(t, err)

	out, err := Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, sampleSRT, string(out))
}

func TestSerializeSRT_NoTrailingBlankSeparator(t *testing.T) {
	t.Parallel()

	raw := "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"
	doc, err := Parse([]byte(raw), FormatSRT)
	require.NoError(t, err)

	out, err := Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out), "serialized bytes must match the input exactly")
	assert.False(t, strings.HasSuffix(string(out), "\n\n"),
		"output must end with a single newline, not a blank separator")
}

func TestSerializeSRT_UsesTranslatedText(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(sampleSRT), FormatSRT)
	require.NoError(t, err)
	doc.Units[0].TranslatedText = "你好"

	out, err := Serialize(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "00:00:01,000 --> 00:00:02,000\n你好\n")
	// untranslated units fall back to the source text
	assert.Contains(t, string(out), "Goodbye")
}
