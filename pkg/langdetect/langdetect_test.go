package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := New()

	code, conf := d.Detect("Customer data is stored in the United States and encrypted at rest by the bank.")
	assert.Equal(t, "en", code)
	assert.Greater(t, conf, 0.0)

	code, _ = d.Detect("Los datos de los clientes se almacenan en los Estados Unidos y se cifran en reposo.")
	assert.Equal(t, "es", code)

	code, conf = d.Detect("   ")
	assert.Equal(t, "", code)
	assert.Equal(t, 0.0, conf)
}

func TestFilter(t *testing.T) {
	d := New()
	fragments := []string{
		"Customer data is stored in the United States and encrypted at rest by the bank.",
		"Los datos de los clientes se almacenan en los Estados Unidos y se cifran en reposo.",
		"Ok.",
	}

	got := d.Filter(fragments, "en")
	assert.Equal(t, []string{fragments[0], fragments[2]}, got)

	assert.Equal(t, fragments, d.Filter(fragments, ""))
}
