package parser

import (
	"strings"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Privacy   Notice</title><style>p { color: red }</style></head>
<body>
  <p>Short one.</p>
  <p>We store customer data in
     the United States and encrypt it at rest.</p>
  <script>var tracking = "ignore me";</script>
  <div>Only authorized employees may access records.</div>
  <p>Transactions are logged for seven years.</p>
</body></html>`

func TestParseParagraphs(t *testing.T) {
	p := New(models.ExtractParagraphs, 0, 0)
	res, err := p.Parse("https://bank.example/privacy", []byte(samplePage), "text/html")
	require.NoError(t, err)

	assert.Equal(t, "Privacy Notice", res.Title)
	assert.Equal(t, []string{
		"We store customer data in the United States and encrypt it at rest.",
		"Transactions are logged for seven years.",
	}, res.Fragments)
}

func TestParseStrings(t *testing.T) {
	p := New(models.ExtractStrings, 0, 0)
	res, err := p.Parse("https://bank.example/privacy", []byte(samplePage), "text/html")
	require.NoError(t, err)

	assert.Contains(t, res.Fragments, "Short one.")
	assert.Contains(t, res.Fragments, "Only authorized employees may access records.")
	for _, f := range res.Fragments {
		assert.NotContains(t, f, "tracking", "script text must be skipped")
		assert.NotContains(t, f, "color", "style text must be skipped")
	}
}

func TestParseTextTruncates(t *testing.T) {
	p := New(models.ExtractText, 0, 30)
	res, err := p.Parse("https://bank.example/privacy", []byte(samplePage), "text/html")
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, 30, len([]rune(res.Fragments[0])))
	assert.True(t, strings.HasPrefix(res.Fragments[0], "Short one. We store"))
}

func TestParseLongParagraphOnOneLine(t *testing.T) {
	long := strings.Repeat("customer data stays in the US ", 2600)
	page := "<html><body><p>" + long + "</p><p>Transactions are logged for seven years.</p></body></html>"

	res, err := New(models.ExtractParagraphs, 0, 0).Parse("https://bank.example/terms", []byte(page), "text/html")
	require.NoError(t, err)
	require.Len(t, res.Fragments, 2)
	assert.Equal(t, strings.TrimSpace(long), res.Fragments[0])

	res, err = New(models.ExtractText, 0, 0).Parse("https://bank.example/terms", []byte(page), "text/html")
	require.NoError(t, err)
	require.Len(t, res.Fragments, 1)
	assert.Equal(t, DefaultMaxChars, len([]rune(res.Fragments[0])))

	lines := splitLines(long + "\nsecond line")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.TrimSpace(long), lines[0])
}

func TestParseReadable(t *testing.T) {
	clause := "Customer data is stored within the United States and encrypted at rest, and access is limited to authorized employees who need it to service your account. "
	page := `<html><head><title>Online Banking Privacy</title></head><body>
<nav><a href="/">Home</a></nav>
<article><h1>Online Banking Privacy</h1>
<p>` + strings.Repeat(clause, 4) + `</p>
<p>` + strings.Repeat("Transactions are logged and kept for seven years so they can be audited. ", 4) + `</p>
</article></body></html>`

	res, err := New(models.ExtractReadable, 0, 0).Parse("https://bank.example/privacy", []byte(page), "text/html")
	require.NoError(t, err)
	require.NotEmpty(t, res.Fragments)
	assert.Contains(t, strings.Join(res.Fragments, " "), "encrypted at rest")
}

func TestParsePlainTextFile(t *testing.T) {
	p := New(models.ExtractParagraphs, 0, 0)
	body := "First clause of the policy.\n\n   Second clause.  \n"
	res, err := p.Parse("docs/policy.txt", []byte(body), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"First clause of the policy.", "Second clause."}, res.Fragments)
}

func TestParseEmptyBody(t *testing.T) {
	for _, mode := range []models.ExtractMode{models.ExtractParagraphs, models.ExtractStrings, models.ExtractText, models.ExtractReadable} {
		t.Run(string(mode), func(t *testing.T) {
			res, err := New(mode, 0, 0).Parse("https://x.example", []byte("  \n"), "text/html")
			require.NoError(t, err)
			assert.Empty(t, res.Fragments)
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		body        string
		contentType string
		want        bool
	}{
		{"content type", "https://x", "anything", "text/html; charset=utf-8", true},
		{"html extension", "page.htm", "plain", "", true},
		{"txt extension", "notes.txt", "<p>looks like html</p>", "", false},
		{"doctype sniff", "page", "<!DOCTYPE html><html></html>", "", true},
		{"plain text", "page", "just words", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeHTML(tt.source, []byte(tt.body), tt.contentType))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a \n\n  b\t\tc  "))
	assert.Equal(t, "", normalizeText("\n \n"))
}
