package geofence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mtpl/face-attendance/internal/database"
)

// Settings keys understood by the loader. The same keys are written by the
// settings API handlers.
const (
	SettingLatitude  = "office_latitude"
	SettingLongitude = "office_longitude"
	SettingRadius    = "geofence_radius"
)

// Loader assembles the effective Policy from the settings and allow-list
// tables, falling back to compiled-in defaults for anything unset.
type Loader struct {
	settings database.SettingsStore
	ips      database.AllowedIPStore
	defaults Policy
}

// NewLoader creates a policy loader backed by the given stores.
func NewLoader(settings database.SettingsStore, ips database.AllowedIPStore, defaults Policy) *Loader {
	return &Loader{settings: settings, ips: ips, defaults: defaults}
}

// Policy reads the current geo policy. Values are read fresh on every call;
// an admin change is visible to the very next clock attempt.
func (l *Loader) Policy(ctx context.Context) (Policy, error) {
	p := l.defaults

	var err error
	if p.Latitude, err = l.floatSetting(ctx, SettingLatitude, p.Latitude); err != nil {
		return Policy{}, err
	}
	if p.Longitude, err = l.floatSetting(ctx, SettingLongitude, p.Longitude); err != nil {
		return Policy{}, err
	}
	if p.RadiusMeters, err = l.floatSetting(ctx, SettingRadius, p.RadiusMeters); err != nil {
		return Policy{}, err
	}

	addrs, err := l.ips.ActiveAddresses(ctx)
	if err != nil {
		return Policy{}, fmt.Errorf("load allowed IPs: %w", err)
	}
	if len(addrs) > 0 {
		p.AllowedIPs = addrs
	}
	return p, nil
}

func (l *Loader) floatSetting(ctx context.Context, key string, fallback float64) (float64, error) {
	raw, ok, err := l.settings.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load setting %s: %w", key, err)
	}
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not numeric: %w", key, err)
	}
	return v, nil
}
