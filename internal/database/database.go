package database

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/models"
)

// ConnString builds the connection URL from the options.
func ConnString(options *models.Options) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(options.DBUser, options.DBPassword),
		Host:   fmt.Sprintf("%s:%d", options.DBHost, options.DBPort),
		Path:   "/" + options.DBName,
	}
	return u.String()
}

// InitDB migrates the schema and opens a connection pool whose
// connections know the vector type.
func InitDB(ctx context.Context, connString string, logger *zap.Logger) (*pgxpool.Pool, error) {
	if err := VerifySchema(ctx, connString); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	logger.Info("connected to database",
		zap.String("host", config.ConnConfig.Host),
		zap.String("database", config.ConnConfig.Database))
	return pool, nil
}

// VerifySchema enables the vector extension and migrates the database to
// the newest embedded schema version.
func VerifySchema(ctx context.Context, connString string) error {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("unable to enable vector extension: %w", err)
	}

	migrator, err := NewMigrator(ctx, conn)
	if err != nil {
		return fmt.Errorf("unable to load migrations: %w", err)
	}
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("unable to migrate database: %w", err)
	}
	return nil
}
