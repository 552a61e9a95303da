package db

import (
	"database/sql"
	"log"

	_ "github.com/lib/pq"

	"github.com/garageware/crm-backend/internal/config"
)

// Open connects to Postgres and verifies the connection.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Println("✅ Connected to database", cfg.Name)
	return conn, nil
}
