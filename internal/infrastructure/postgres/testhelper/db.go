// Package testhelper levanta un PostgreSQL efímero con testcontainers para las pruebas de integración.
package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/postgres"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// SetupTestDB arranca un contenedor compartido (una vez por ejecución), aplica las migraciones
// y devuelve un pool nuevo. Se omite con -short o si Docker no está disponible.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("testhelper: prueba de integración omitida con -short")
	}

	once.Do(func() {
		sharedDSN, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Skipf("testhelper: PostgreSQL no disponible: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolFromDSN(ctx, sharedDSN, 10)
	if err != nil {
		t.Fatalf("testhelper: crear pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool, sharedDSN
}

func startContainerAndMigrate() (dsn string, err error) {
	defer func() {
		// testcontainers entra en pánico si no encuentra un host Docker.
		if r := recover(); r != nil {
			err = fmt.Errorf("docker: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
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
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	dsn = fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return "", err
	}
	defer m.Close()
	if _, err := m.Up(ctx); err != nil {
		return "", err
	}
	return dsn, nil
}
