package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    []string
		wantErr bool
	}{
		{name: "integers", start: "1", end: "4", want: []string{"1", "2", "3", "4"}},
		{name: "single", start: "7", end: "7", want: []string{"7"}},
		{name: "dotted", start: "3.1", end: "3.3", want: []string{"3.1", "3.2", "3.3"}},
		{name: "whitespace", start: " 2 ", end: "3", want: []string{"2", "3"}},
		{name: "reversed", start: "5", end: "2", wantErr: true},
		{name: "mixed prefixes", start: "3.1", end: "4.2", wantErr: true},
		{name: "one dotted", start: "3.1", end: "5", wantErr: true},
		{name: "not a number", start: "a", end: "3", wantErr: true},
		{name: "too large", start: "1", end: "1000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
