// Package langdetect identifies the language of extracted text with lingua-go.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minFilterChars is the shortest fragment the filter will judge; shorter ones are kept.
const minFilterChars = 20

// defaultMinConfidence is the confidence required before a fragment is dropped.
const defaultMinConfidence = 0.5

var languages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Chinese,
	lingua.Japanese,
}

// Detector wraps a lingua detector restricted to the languages regulator and bank pages use.
type Detector struct {
	once          sync.Once
	detector      lingua.LanguageDetector
	minConfidence float64
}

// New returns a Detector. The underlying models load on first use.
func New() *Detector {
	return &Detector{minConfidence: defaultMinConfidence}
}

func (d *Detector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build()
	})
	return d.detector
}

// Detect returns the lowercase ISO 639-1 code of text and the detector's confidence.
// It returns "" when the language cannot be determined.
func (d *Detector) Detect(text string) (string, float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", 0
	}
	det := d.get()
	lang, ok := det.DetectLanguageOf(text)
	if !ok {
		return "", 0
	}
	return strings.ToLower(lang.IsoCode639_1().String()), det.ComputeLanguageConfidence(text, lang)
}

// Filter keeps fragments that are in want, too short to judge, or not confidently
// detected as some other language. An empty want returns fragments unchanged.
func (d *Detector) Filter(fragments []string, want string) []string {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return fragments
	}
	out := fragments[:0:0]
	for _, f := range fragments {
		if len([]rune(f)) < minFilterChars {
			out = append(out, f)
			continue
		}
		code, conf := d.Detect(f)
		if code == "" || code == want || conf < d.minConfidence {
			out = append(out, f)
		}
	}
	return out
}
