package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("EMBEDDING_DIM")
	os.Unsetenv("MATCH_THRESHOLD")

	cfg := Load()

	if cfg.Embedding.Dim != 128 {
		t.Errorf("expected default embedding dim 128, got %d", cfg.Embedding.Dim)
	}
	if cfg.Match.Threshold != 0.5 {
		t.Errorf("expected default threshold 0.5, got %v", cfg.Match.Threshold)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected default max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadEmbeddedGeofenceDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Geofence.Latitude == 0 || cfg.Geofence.Longitude == 0 {
		t.Error("expected embedded reference coordinates to be non-zero")
	}
	if cfg.Geofence.RadiusMeters <= 0 {
		t.Errorf("expected positive default radius, got %v", cfg.Geofence.RadiusMeters)
	}
	if len(cfg.Geofence.AllowedIPs) == 0 {
		t.Error("expected seed allow-list to be non-empty")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "512")
	t.Setenv("MATCH_THRESHOLD", "0.35")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "bogus")

	cfg := Load()

	if cfg.Embedding.Dim != 512 {
		t.Errorf("expected embedding dim 512, got %d", cfg.Embedding.Dim)
	}
	if cfg.Match.Threshold != 0.35 {
		t.Errorf("expected threshold 0.35, got %v", cfg.Match.Threshold)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("invalid env value should fall back to default, got %d", cfg.Database.MaxOpenConns)
	}
}
