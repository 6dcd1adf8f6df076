// Package testutil starts the Postgres and Redis containers used by the
// integration tests. Containers are removed through t.Cleanup.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noscite/noscite-assistant/internal/database"
)

const (
	postgresImage = "pgvector/pgvector:0.8.1-pg18"
	redisImage    = "redis:7-alpine"
	pgCredential  = "noscite"
)

// StartPostgres runs a pgvector-enabled Postgres and returns its URL.
func StartPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	c := start(ctx, t, testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgCredential,
			"POSTGRES_PASSWORD": pgCredential,
			"POSTGRES_DB":       pgCredential,
		},
		// the entrypoint restarts the server once after init
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	})
	host, port := endpoint(ctx, t, c, "5432/tcp")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgCredential, pgCredential, host, port, pgCredential)
}

// StartRedis runs Redis and returns its host:port.
func StartRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	c := start(ctx, t, testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	})
	host, port := endpoint(ctx, t, c, "6379/tcp")
	return host + ":" + port
}

// NewTestPool applies the migrations in migrationsDir with golang-migrate,
// the same path `noscited migrate` takes, and returns a pool closed on
// cleanup.
func NewTestPool(ctx context.Context, t *testing.T, databaseURL, migrationsDir string) *pgxpool.Pool {
	t.Helper()
	dir, err := filepath.Abs(migrationsDir)
	if err != nil {
		t.Fatalf("resolve migrations dir: %v", err)
	}
	if err := database.Migrate(databaseURL, dir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: databaseURL, PingTimeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(c) })
	return c
}

func endpoint(ctx context.Context, t *testing.T, c testcontainers.Container, port nat.Port) (string, string) {
	t.Helper()
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("container port %s: %v", port, err)
	}
	return host, mapped.Port()
}
