// Package database opens the MySQL pool and applies the embedded schema
// migrations.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options describes how to reach MySQL.  Loc is the zone DATETIME columns
// are read and written in; booking hours are wall-clock hours in it.
type Options struct {
	User string
	Pass string
	Host string
	Port string
	Name string
	Loc  *time.Location
}

// Config builds the driver configuration for o.
func Config(o Options) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, o.Port)
	cfg.DBName = o.Name
	// parseTime=true -> DATETIME -> time.Time in Loc
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if o.Loc != nil {
		cfg.Loc = o.Loc
	}
	cfg.Collation = "utf8mb4_unicode_ci"
	return cfg
}

// Open connects to MySQL and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	connector, err := mysql.NewConnector(Config(o))
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	// Pool settings.  Every in-flight booking pins one connection for its
	// advisory locks, so the pool bounds concurrent bookings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
