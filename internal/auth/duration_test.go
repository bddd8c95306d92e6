package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "1d", want: 24 * time.Hour},
		{in: "30d", want: 30 * 24 * time.Hour},
		{in: "1 day", want: 24 * time.Hour},
		{in: "30 days", want: 30 * 24 * time.Hour},
		{in: " 2 Hours ", want: 2 * time.Hour},
		{in: "15 minutes", want: 15 * time.Minute},
		{in: "1 week", want: 7 * 24 * time.Hour},
		{in: "12h", want: 12 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "1s", want: time.Second},
		{in: "106751 days", want: 106751 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "30", "days", "3 fortnights", "-1h", "1.5d",
		"0d", "0s", "0", "500ms", "999ms", "300000 days", "99999999999999 weeks"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			assert.Error(t, err)
		})
	}
}
