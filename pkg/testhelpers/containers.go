// Package testhelpers provides shared fixtures for schemantic
// integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/schemantic/schemantic/pkg/adapters/catalog"
)

// PostgresImage is the stock image integration tests introspect against.
const PostgresImage = "postgres:16-alpine"

const (
	testDatabase = "catalog_test"
	testUser     = "app"
	testPassword = "test_password"
)

// seedDDL is the fixture schema: an identity primary key, a named enum
// type, table and column comments, a one-to-one table, a pure junction
// with a composite key, and secondary indexes.
const seedDDL = `
CREATE TYPE account_status AS ENUM ('active', 'suspended', 'deleted');

CREATE TABLE users (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    email varchar(255) NOT NULL,
    status account_status NOT NULL DEFAULT 'active',
    balance numeric(12,2),
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX users_email_key ON users (email);
COMMENT ON TABLE users IS 'Registered accounts';
COMMENT ON COLUMN users.status IS 'Lifecycle state';

CREATE TABLE user_profiles (
    user_id bigint PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
    bio text
);

CREATE TABLE posts (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    author_id bigint NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title varchar(200) NOT NULL,
    body text
);
CREATE INDEX posts_author_id_idx ON posts (author_id);

CREATE TABLE tags (
    id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name varchar(80) NOT NULL UNIQUE
);

CREATE TABLE post_tags (
    post_id bigint NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
    tag_id bigint NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
    PRIMARY KEY (post_id, tag_id)
);
`

// CatalogDB holds a shared seeded PostgreSQL container for integration
// tests.
type CatalogDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
	Host      string
	Port      int
}

// Settings returns connection settings pointing at the container, in
// the neutral form the reader factory consumes.
func (db *CatalogDB) Settings() catalog.ConnectionSettings {
	return catalog.ConnectionSettings{
		Driver:   "postgres",
		Host:     db.Host,
		Port:     db.Port,
		Database: testDatabase,
		User:     testUser,
		Password: testPassword,
		SSLMode:  "disable",
	}
}

var (
	sharedCatalogDB     *CatalogDB
	sharedCatalogDBOnce sync.Once
	sharedCatalogDBErr  error
)

// GetCatalogDB returns a shared seeded PostgreSQL container. The
// container is created once and reused across all tests in the run.
func GetCatalogDB(t *testing.T) *CatalogDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedCatalogDBOnce.Do(func() {
		sharedCatalogDB, sharedCatalogDBErr = setupCatalogDB()
	})

	if sharedCatalogDBErr != nil {
		t.Fatalf("Failed to setup catalog test database: %v", sharedCatalogDBErr)
	}

	return sharedCatalogDB
}

func setupCatalogDB() (*CatalogDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		testUser, testPassword, host, port.Int(), testDatabase)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if _, err := pool.Exec(ctx, seedDDL); err != nil {
		return nil, fmt.Errorf("failed to seed test schema: %w", err)
	}

	return &CatalogDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
		Host:      host,
		Port:      port.Int(),
	}, nil
}
