package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Ann", "Ann"},
		{"  Ann Lee ", "Ann Lee"},
		{"<b>Ann</b>", "Ann"},
		{"Tom & Jerry", "Tom & Jerry"},
		{`<script>alert(1)</script>Bob`, "Bob"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkup(tt.in), tt.in)
	}
}
