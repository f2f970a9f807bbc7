package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/sigil/internal/authenticator/outbound/bolt"
	"github.com/shandysiswandi/sigil/internal/pkg/clock"
	"github.com/shandysiswandi/sigil/internal/pkg/config"
	"github.com/shandysiswandi/sigil/internal/pkg/goroutine"
	"github.com/shandysiswandi/sigil/internal/pkg/instrument"
	"github.com/shandysiswandi/sigil/internal/pkg/storage"
	"github.com/shandysiswandi/sigil/internal/pkg/uid"
	"github.com/shandysiswandi/sigil/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	storeMemory   = "memory"
	storeBolt     = "bolt"
	storePostgres = "postgres"
)

func defaults(home string) map[string]any {
	return map[string]any{
		"app.tz":                             "",
		"app.max_goroutine":                  goroutine.DefaultMaxGoroutine,
		"app.tick_interval_millis":           1000,
		"store.driver":                       storeBolt,
		"store.bolt.path":                    filepath.Join(home, ".sigil", "accounts.db"),
		"database.pool.max_conns":            4,
		"database.pool.min_conns":            0,
		"qrcode.size":                        256,
		"archive.bucket":                     "",
		"archive.prefix":                     "backups",
		"archive.keep":                       0,
		"storage.driver":                     "",
		"instrument.enabled":                 false,
		"instrument.service_name":            "sigil",
		"instrument.service_version":         "dev",
		"instrument.env":                     "local",
		"instrument.trace_sample_ratio":      1.0,
		"instrument.metric_interval_seconds": 60,
		"instrument.log_level":               "warn",
		"instrument.log_format":              "text",
		"instrument.log_mask_fields":         "secret,password,data",
	}
}

func (a *App) initConfig() error {
	if a.config != nil {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath(home)
	}

	cfg, err := config.NewViper(path, defaults(home))
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
	return nil
}

func (a *App) initInstrument() error {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogWriter:        a.stderr,
		LogLevel:         a.config.GetString("instrument.log_level"),
		LogFormat:        instrument.LogFormat(a.config.GetString("instrument.log_format")),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		return fmt.Errorf("init instrumentation: %w", err)
	}

	a.ins = ins
	a.addCloser("Instrument", a.ins.Shutdown)
	return nil
}

func (a *App) initLibraries() error {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		return fmt.Errorf("init validator v10: %w", err)
	}
	a.validator = v

	return nil
}

func (a *App) storeDriver() string {
	return strings.ToLower(strings.TrimSpace(a.config.GetString("store.driver")))
}

func (a *App) initDatabase() error {
	if a.storeDriver() != storePostgres {
		return nil
	}

	cfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse DB connection string: %w", err)
	}

	cfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	cfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	cfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	cfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		return fmt.Errorf("create DB connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("ping DB: %w", err)
	}

	a.dbConn = pool
	a.addCloser("Database", func(context.Context) error {
		a.dbConn.Close()
		return nil
	})
	return nil
}

func (a *App) initBolt() error {
	switch a.storeDriver() {
	case storeBolt:
	case storeMemory, storePostgres:
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", a.config.GetString("store.driver"))
	}

	s, err := bolt.Open(a.config.GetString("store.bolt.path"), a.uuid, a.clock)
	if err != nil {
		return fmt.Errorf("open bolt store: %w", err)
	}

	a.boltStore = s
	a.addCloser("Bolt", func(context.Context) error {
		return a.boltStore.Close()
	})
	return nil
}

func (a *App) gcsClient() (*gcs.Client, error) {
	var opts []option.ClientOption
	if a.config.GetBool("storage.gcs.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); v != "" {
		// #nosec G304 -- path is from trusted config file.
		credsJSON, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read gcs credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, gcs.ScopeFullControl)
		if err != nil {
			return nil, fmt.Errorf("parse gcs credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if v := a.config.GetBinary("storage.gcs.credentials_json"); len(v) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, v, gcs.ScopeFullControl)
		if err != nil {
			return nil, fmt.Errorf("parse gcs credentials json: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.user_agent")); v != "" {
		opts = append(opts, option.WithUserAgent(v))
	}
	if len(opts) == 0 {
		return nil, nil
	}

	return gcs.NewClient(a.ctx, opts...)
}

func (a *App) initStorage() error {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		return nil
	}

	var client *gcs.Client
	if driver == storage.DriverGCS {
		c, err := a.gcsClient()
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		client = c
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Client:    client,
			ProjectID: strings.TrimSpace(a.config.GetString("storage.gcs.project_id")),
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	a.storage = stg
	a.addCloser("Storage", func(context.Context) error {
		return a.storage.Close()
	})
	return nil
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
