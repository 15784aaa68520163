package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"stockroom/internal/model"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// sqlitePragmas makes concurrent writers wait for the file lock instead of failing.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Open returns a connected GORM DB instance for the given driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(sqliteDSN(dsn))
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite || driver == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite pool: %w", err)
		}
		// One writer at a time; every commit is serialized by the file lock anyway.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// AdminSeed is the account created on first initialization.
type AdminSeed struct {
	Username     string
	PasswordHash string
}

// CreateTables migrates the schema and seeds the admin account. It is safe to
// call on every start: an existing admin username is left untouched.
func CreateTables(ctx context.Context, db *gorm.DB, admin AdminSeed) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.Product{}, &model.User{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if admin.Username == "" {
		return nil
	}
	seed := &model.User{
		Username:     admin.Username,
		PasswordHash: admin.PasswordHash,
		Role:         model.RoleAdmin,
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

// DropTables removes every table owned by the service.
func DropTables(ctx context.Context, db *gorm.DB) error {
	for _, table := range []interface{}{&model.Product{}, &model.User{}} {
		if err := db.WithContext(ctx).Migrator().DropTable(table); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

func ensureDir(dsn string) error {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}
