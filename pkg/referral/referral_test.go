package referral

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode_Shape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)

	for i := 0; i < 100; i++ {
		code := GenerateCode()
		assert.True(t, pattern.MatchString(code), "unexpected code %q", code)
	}
}

func TestCodeFromName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Ana María!", "anamara"},
		{"  Pedro Pérez  ", "pedroprez"},
		{"Equipo 42", "equipo42"},
		{"ALLCAPS", "allcaps"},
		{"¡¿!?", ""},
		{"", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, CodeFromName(c.name), "name %q", c.name)
	}
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://firma.example.com?ref=ABC123XY", Link("https://firma.example.com", "ABC123XY"))
}
