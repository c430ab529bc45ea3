package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"item-catalog/internal/config"
	"item-catalog/internal/service"
)

func TestStartDigest(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	digest := service.NewDigestService(nil, nil, time.Now(), log)

	tests := []struct {
		name    string
		cfg     config.TelegramConfig
		jobs    int
		wantErr bool
	}{
		{name: "daily", cfg: config.TelegramConfig{DigestTime: "09:00", DigestInterval: time.Hour}, jobs: 1},
		{name: "interval", cfg: config.TelegramConfig{DigestInterval: 6 * time.Hour}, jobs: 1},
		{name: "disabled", cfg: config.TelegramConfig{}, jobs: 0},
		{name: "bad time", cfg: config.TelegramConfig{DigestTime: "9am"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler, err := startDigest(tt.cfg, digest, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer scheduler.Stop()
			assert.Equal(t, tt.jobs, scheduler.Len())
		})
	}
}
