package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesSearch(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []string
		want   bool
	}{
		{"empty query matches", "", []string{"Maria"}, true},
		{"case insensitive", "MARIA", []string{"maria silva"}, true},
		{"accent insensitive query", "joao", []string{"João Pereira"}, true},
		{"accent insensitive field", "conceição", []string{"Ana Conceicao"}, true},
		{"matches phone", "9988", []string{"Ana", "(11) 99887-7665"}, true},
		{"matches email", "gmail", []string{"Ana", "", "ana@gmail.com"}, true},
		{"no match", "pedro", []string{"Ana", "123", "ana@x.com"}, false},
		{"whitespace query matches", "   ", []string{"Ana"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSearch(tt.query, tt.fields...))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "pos-graduacao", Fold(" Pós-Graduação "))
}
