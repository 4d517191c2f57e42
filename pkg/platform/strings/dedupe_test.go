package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"empty stays empty", []string{}, []string{}},
		{"broker list with gaps and repeats", strings.Split(" kafka-1:9092,kafka-2:9092,,kafka-1:9092 ", ","), []string{"kafka-1:9092", "kafka-2:9092"}},
		{"only blanks", []string{"", "  ", "\t"}, []string{}},
		{"case is significant", []string{"Broker:9092", "broker:9092"}, []string{"Broker:9092", "broker:9092"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}
