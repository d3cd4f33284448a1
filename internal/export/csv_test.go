package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadURLsCSV(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		column int
		want   []string
	}{
		{
			name:   "comma with header",
			input:  "name,website\nACME,https://acme.example\nFoo,http://foo.example\nACME again,https://acme.example\n",
			column: -1,
			want:   []string{"https://acme.example", "http://foo.example"},
		},
		{
			name:   "semicolon picks column",
			input:  "https://left.example;https://right.example\nhttps://l2.example;https://r2.example\n",
			column: 1,
			want:   []string{"https://right.example", "https://r2.example"},
		},
		{
			name:   "plain list",
			input:  "https://a.example\n\n  https://b.example  \nnot a url\n",
			column: -1,
			want:   []string{"https://a.example", "https://b.example"},
		},
		{
			name:   "tabs",
			input:  "Firma\tURL\nACME\thttps://acme.example\n",
			column: -1,
			want:   []string{"https://acme.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadURLsCSV(strings.NewReader(tt.input), tt.column)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadURLsCSV_Empty(t *testing.T) {
	got, err := ReadURLsCSV(strings.NewReader(""), -1)
	require.NoError(t, err)
	assert.Empty(t, got)
}
