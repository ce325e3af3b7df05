package config

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL backend
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
	DialectNone   Dialect = "none"
)

// AutoIncrementPK returns the column definition of a surrogate primary key
func (d Dialect) AutoIncrementPK() string {
	if d == DialectSQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "INT AUTO_INCREMENT PRIMARY KEY"
}

// BlobType returns the column type used for compressed payloads
func (d Dialect) BlobType() string {
	if d == DialectSQLite {
		return "BLOB"
	}
	return "LONGBLOB"
}

// DatabaseConfig contains the settings of the analytics database
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// Dialect returns the normalized driver name
func (c DatabaseConfig) Dialect() Dialect {
	d := Dialect(strings.ToLower(strings.TrimSpace(c.Driver)))
	if d == "" {
		return DialectNone
	}
	return d
}

// DataSourceName returns the DSN passed to sql.Open
func (c DatabaseConfig) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Dialect() == DialectSQLite {
		return c.DBName + ".db"
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Host + ":" + strconv.Itoa(c.Port)
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// DBConnections contains the analytics database connection
type DBConnections struct {
	AnalyticsDB *sql.DB
	Dialect     Dialect
}

// ConnectDatabases opens the analytics database. It returns nil connections when
// storage is disabled.
func ConnectDatabases(config ETLConfig) (*DBConnections, error) {
	dialect := config.Storage.Dialect()
	if dialect == DialectNone {
		return nil, nil
	}

	db, err := sql.Open(string(dialect), config.Storage.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("opening %s analytics database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// a single connection keeps ":memory:" databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s analytics database: %w", dialect, err)
	}

	return &DBConnections{AnalyticsDB: db, Dialect: dialect}, nil
}

// CloseDatabases closes the analytics database connection
func CloseDatabases(connections *DBConnections) error {
	if connections == nil || connections.AnalyticsDB == nil {
		return nil
	}
	if err := connections.AnalyticsDB.Close(); err != nil {
		return fmt.Errorf("closing analytics database: %w", err)
	}
	return nil
}
