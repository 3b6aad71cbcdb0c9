package ws

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"http://localhost:3000"}, "", true},
		{"listed origin", []string{"http://localhost:3000"}, "http://localhost:3000", true},
		{"case and path are ignored", []string{" HTTP://LocalHost:3000/ "}, "http://localhost:3000", true},
		{"other port", []string{"http://localhost:3000"}, "http://localhost:4000", false},
		{"wildcard", []string{"*"}, "https://anywhere.example", true},
		{"invalid entries are skipped", []string{"not an origin", ""}, "http://localhost:3000", false},
		{"garbage origin", []string{"http://localhost:3000"}, "::", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			require.Equal(t, tt.want, newOriginPolicy(log, tt.allowed).check(r))
		})
	}
}
