package db

import (
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
)

// DB is the global database connection.
var DB *sqlx.DB

// Connect opens and pings a database using one of the registered drivers.
func Connect(driver, dbURL string) (*sqlx.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	conn, err := sqlx.Connect(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", driver, err)
	}
	return conn, nil
}

// InitDB initializes the global database connection.
func InitDB(driver, dbURL string) {
	var err error
	DB, err = Connect(driver, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err = DB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Database connection established")
}
