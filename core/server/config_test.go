package server_test

import (
	"testing"
	"time"

	"planner/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr bool
	}{
		{"Default", "8080", false},
		{"Low", "1", false},
		{"Zero", "0", true},
		{"TooHigh", "70000", true},
		{"NotNumber", "http", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := server.Config{Port: tt.port}.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	var c server.Config
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout())
	assert.Equal(t, 4*1024*1024, c.BodyLimit())

	c = server.Config{ShutdownTimeoutSeconds: 3, BodyLimitKB: 16}
	assert.Equal(t, 3*time.Second, c.ShutdownTimeout())
	assert.Equal(t, 16*1024, c.BodyLimit())
}
