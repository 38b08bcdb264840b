package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRoundedUnit(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{59, "59s"},
		{60, "1m"},
		{90, "1m"},
		{3599, "59m"},
		{3600, "1h"},
		{7300, "2h"},
		{-30, "30s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRoundedUnit(tt.seconds), "seconds=%d", tt.seconds)
	}
}
