package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/thep200/workflow-popularity/cfg"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSqlite   = "sqlite"
	DriverMysql    = "mysql"
	DriverPostgres = "postgres"
)

type Database struct {
	Config  *cfg.Config
	once    sync.Once
	db      *gorm.DB
	initErr error
}

func NewDatabase(config *cfg.Config) (*Database, error) {
	switch config.Database.Driver {
	case DriverSqlite, DriverMysql, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", config.Database.Driver)
	}
	return &Database{
		Config: config,
	}, nil
}

func (d *Database) DSN() string {
	c := d.Config.Database
	switch c.Driver {
	case DriverMysql:
		config := mysqlDriver.Config{
			User:                 c.Username,
			Passwd:               c.Password,
			DBName:               c.Database,
			Addr:                 c.Host + ":" + c.Port,
			Net:                  "tcp",
			ParseTime:            true,
			AllowNativePasswords: true,
			Params:               map[string]string{"charset": "utf8mb4"},
		}
		return config.FormatDSN()
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	default:
		return c.Path
	}
}

func (d *Database) dialector() (gorm.Dialector, error) {
	switch d.Config.Database.Driver {
	case DriverMysql:
		return mysql.Open(d.DSN()), nil
	case DriverPostgres:
		return postgres.Open(d.DSN()), nil
	default:
		path := d.DSN()
		if !isMemoryPath(path) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(path), nil
	}
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file:")
}

func (d *Database) Db() (*gorm.DB, error) {
	d.once.Do(func() {
		var dialector gorm.Dialector
		dialector, d.initErr = d.dialector()
		if d.initErr != nil {
			return
		}

		// Open connection
		var db *gorm.DB
		db, d.initErr = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if d.initErr != nil {
			return
		}

		// Get sqlDB
		var sqlDB *sql.DB
		sqlDB, d.initErr = db.DB()
		if d.initErr != nil {
			return
		}

		// Setting connection pool
		maxOpen := d.Config.Database.MaxOpenConnection
		if d.Config.Database.Driver == DriverSqlite {
			// single writer avoids SQLITE_BUSY between upserts
			maxOpen = 1
		}
		sqlDB.SetMaxIdleConns(d.Config.Database.MaxIdleConnection)
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetConnMaxLifetime(time.Duration(d.Config.Database.MaxLifeTimeConnection) * time.Second)

		d.db = db
	})
	return d.db, d.initErr
}

func (d *Database) Ping() error {
	db, err := d.Db()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	if d.db != nil {
		sqlDB, err := d.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func (d *Database) Migrate(models ...interface{}) error {
	db, err := d.Db()
	if err != nil {
		return err
	}
	return db.AutoMigrate(models...)
}
