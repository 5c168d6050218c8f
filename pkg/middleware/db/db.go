package db

import (
	"context"
	"fmt"
	"time"

	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type LogConf struct {
	Level string
}

type Config struct {
	Driver     Driver
	Host       string
	Port       int
	User       string
	PW         string
	DBName     string
	SQLitePath string
	LogConf    LogConf
}

type Datastore struct {
	db *gorm.DB
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "info":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}

// Open connects to the configured SQL backend and installs tracing.
func Open(ctx context.Context, conf *Config) (*Datastore, error) {
	var dialector gorm.Dialector
	switch conf.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			conf.Host, conf.Port, conf.User, conf.PW, conf.DBName)
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		dialector = sqlite.Open(conf.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown db driver: %s", conf.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(conf.LogConf.Level)),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		logger.Warnf(ctx, "install gorm tracing plugin fail err: %+v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if conf.Driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// one writer for sqlite
		sqlDB.SetMaxOpenConns(1)
	}
	return &Datastore{db: gdb}, nil
}

func (d *Datastore) DBWithContext(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

func (d *Datastore) DBIns() *gorm.DB {
	return d.db
}

func (d *Datastore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Datastore) Close(ctx context.Context) {
	sqlDB, err := d.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Errorf(ctx, "close db err: %+v", err)
	}
}
