package geofence_test

import (
	"context"
	"testing"

	"github.com/mtpl/face-attendance/internal/database/mock"
	"github.com/mtpl/face-attendance/internal/geofence"
)

func defaults() geofence.Policy {
	return geofence.Policy{
		Latitude:     23.022797,
		Longitude:    72.531968,
		RadiusMeters: 50,
		AllowedIPs:   []string{"127.0.0.1"},
	}
}

func TestLoader_FallsBackToDefaults(t *testing.T) {
	loader := geofence.NewLoader(mock.NewSettingsStore(), mock.NewAllowedIPStore(), defaults())

	policy, err := loader.Policy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.Latitude != 23.022797 || policy.Longitude != 72.531968 {
		t.Errorf("expected default coordinates, got %f,%f", policy.Latitude, policy.Longitude)
	}
	if policy.RadiusMeters != 50 {
		t.Errorf("expected default radius 50, got %f", policy.RadiusMeters)
	}
	if len(policy.AllowedIPs) != 1 || policy.AllowedIPs[0] != "127.0.0.1" {
		t.Errorf("expected default allow-list, got %v", policy.AllowedIPs)
	}
}

func TestLoader_SettingsOverrideDefaults(t *testing.T) {
	settings := mock.NewSettingsStore()
	ctx := context.Background()
	if err := settings.Set(ctx, geofence.SettingLatitude, "19.076090"); err != nil {
		t.Fatal(err)
	}
	if err := settings.Set(ctx, geofence.SettingRadius, "120"); err != nil {
		t.Fatal(err)
	}

	loader := geofence.NewLoader(settings, mock.NewAllowedIPStore(), defaults())
	policy, err := loader.Policy(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.Latitude != 19.076090 {
		t.Errorf("expected overridden latitude, got %f", policy.Latitude)
	}
	if policy.Longitude != 72.531968 {
		t.Errorf("expected default longitude to survive, got %f", policy.Longitude)
	}
	if policy.RadiusMeters != 120 {
		t.Errorf("expected overridden radius, got %f", policy.RadiusMeters)
	}
}

func TestLoader_ActiveIPsReplaceDefaults(t *testing.T) {
	ips := mock.NewAllowedIPStore("10.1.1.1", "10.1.1.2")
	loader := geofence.NewLoader(mock.NewSettingsStore(), ips, defaults())

	policy, err := loader.Policy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(policy.AllowedIPs) != 2 {
		t.Fatalf("expected 2 allowed IPs, got %v", policy.AllowedIPs)
	}
	if policy.AllowedIPs[0] != "10.1.1.1" {
		t.Errorf("expected stored allow-list to replace defaults, got %v", policy.AllowedIPs)
	}
}

func TestLoader_FreshReadPerCall(t *testing.T) {
	settings := mock.NewSettingsStore()
	loader := geofence.NewLoader(settings, mock.NewAllowedIPStore(), defaults())
	ctx := context.Background()

	first, _ := loader.Policy(ctx)
	if first.RadiusMeters != 50 {
		t.Fatalf("expected default radius first, got %f", first.RadiusMeters)
	}

	if err := settings.Set(ctx, geofence.SettingRadius, "75"); err != nil {
		t.Fatal(err)
	}
	second, err := loader.Policy(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.RadiusMeters != 75 {
		t.Errorf("expected the change to be visible immediately, got %f", second.RadiusMeters)
	}
}

func TestLoader_NonNumericSettingFails(t *testing.T) {
	settings := mock.NewSettingsStore()
	if err := settings.Set(context.Background(), geofence.SettingLatitude, "north"); err != nil {
		t.Fatal(err)
	}

	loader := geofence.NewLoader(settings, mock.NewAllowedIPStore(), defaults())
	if _, err := loader.Policy(context.Background()); err == nil {
		t.Error("expected an error for a non-numeric setting")
	}
}
