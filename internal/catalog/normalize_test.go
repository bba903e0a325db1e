package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  int
		clean bool
	}{
		{name: "plain number", in: "23", want: 23, clean: true},
		{name: "unknown sentinel", in: "unknown", want: 0, clean: false},
		{name: "unknown uppercase", in: "Unknown", want: 0, clean: false},
		{name: "empty", in: "", want: 0, clean: false},
		{name: "thousands separator keeps leading run", in: "1,358", want: 1, clean: true},
		{name: "negative", in: "-12", want: -12, clean: true},
		{name: "non numeric", in: "n/a", want: 0, clean: false},
		{name: "trailing garbage keeps leading run", in: "200000 approx", want: 200000, clean: true},
		{name: "whitespace", in: " 42 ", want: 42, clean: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clean := coerceInt(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clean, clean)
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	fields, clean := normalizeFields([]string{"10", "unknown", "30"})
	assert.Equal(t, []int{10, 0, 30}, fields)
	assert.False(t, clean)

	fields, clean = normalizeFields([]string{"1", "2"})
	assert.Equal(t, []int{1, 2}, fields)
	assert.True(t, clean)
}
