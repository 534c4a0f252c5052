package cmd

import (
	"errors"
	"fmt"

	"github.com/mtpl/face-attendance/internal/attendance"
	"github.com/mtpl/face-attendance/internal/config"
	"github.com/mtpl/face-attendance/internal/database"
	"github.com/mtpl/face-attendance/internal/database/mysql"
	"github.com/mtpl/face-attendance/internal/database/postgres"
	"github.com/mtpl/face-attendance/internal/extractor"
	"github.com/mtpl/face-attendance/internal/geofence"
)

// app bundles the wired components shared by the CLI commands.
type app struct {
	cfg       *config.Config
	pool      *postgres.Pool
	hrPool    *mysql.Pool // nil when no HR database is configured
	templates *postgres.TemplateRepository
	records   *postgres.AttendanceRepository
	presence  *postgres.PresenceRepository
	settings  *postgres.SettingsRepository
	ips       *postgres.AllowedIPRepository
	holidays  *postgres.HolidayRepository
	directory database.UserDirectory // nil when no HR database is configured
	policy    *geofence.Loader
	service   *attendance.Service
}

// newApp loads the configuration, connects the databases and wires the
// attendance service.
func newApp() (*app, error) {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	a := &app{
		cfg:       cfg,
		pool:      pool,
		templates: postgres.NewTemplateRepository(pool, cfg.Embedding.Dim),
		records:   postgres.NewAttendanceRepository(pool),
		presence:  postgres.NewPresenceRepository(pool),
		settings:  postgres.NewSettingsRepository(pool),
		ips:       postgres.NewAllowedIPRepository(pool),
		holidays:  postgres.NewHolidayRepository(pool),
	}

	if cfg.Directory.DatabaseURL != "" {
		hrPool, err := mysql.NewPool(cfg.Directory.DatabaseURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to HR database: %w", err)
		}
		a.hrPool = hrPool
		a.directory = mysql.NewUserDirectory(hrPool)
		fmt.Printf("HR user directory enabled (MySQL)\n")
	} else {
		fmt.Printf("HR_DATABASE_URL not set, skipping user activity checks\n")
	}

	a.policy = geofence.NewLoader(a.settings, a.ips, geofence.Policy{
		Latitude:     cfg.Geofence.Latitude,
		Longitude:    cfg.Geofence.Longitude,
		RadiusMeters: cfg.Geofence.RadiusMeters,
		AllowedIPs:   cfg.Geofence.AllowedIPs,
	})

	a.service = attendance.NewService(
		a.templates,
		a.records,
		a.presence,
		a.directory,
		extractor.NewClient(cfg.Embedding.URL),
		a.policy,
		cfg.Match.Threshold,
		cfg.Embedding.Dim,
	)

	return a, nil
}

// Close releases the database connections.
func (a *app) Close() {
	if a.hrPool != nil {
		a.hrPool.Close()
	}
	a.pool.Close()
}
