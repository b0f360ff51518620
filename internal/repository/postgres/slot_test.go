package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	repo "taskflow/internal/repository"
	"taskflow/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	storage    *postgres.Storage
	ctx        context.Context
	connString string
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	s.storage, err = postgres.New(s.ctx, s.connString, postgres.PoolConfig{})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.storage.Migrate(s.ctx))
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицу перед каждым тестом
func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	require.NoError(s.T(), err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, "DELETE FROM storage_slots")
	require.NoError(s.T(), err)
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}

func (s *PostgresTestSuite) TestStorage_LoadEmpty() {
	_, err := s.storage.Load(s.ctx, "taskflow_tasks")
	assert.ErrorIs(s.T(), err, repo.ErrSlotEmpty)
}

func (s *PostgresTestSuite) TestStorage_SaveLoad() {
	payload := []byte(`[{"id":"1","title":"first"},{"id":"2","title":"second"}]`)
	require.NoError(s.T(), s.storage.Save(s.ctx, "taskflow_tasks", payload))

	data, err := s.storage.Load(s.ctx, "taskflow_tasks")
	require.NoError(s.T(), err)

	// JSONB нормализует пробелы, поэтому сравниваем по содержимому
	var got, want []map[string]string
	require.NoError(s.T(), json.Unmarshal(data, &got))
	require.NoError(s.T(), json.Unmarshal(payload, &want))
	assert.Equal(s.T(), want, got)
}

func (s *PostgresTestSuite) TestStorage_Overwrite() {
	require.NoError(s.T(), s.storage.Save(s.ctx, "taskflow_tasks", []byte(`[]`)))
	require.NoError(s.T(), s.storage.Save(s.ctx, "taskflow_tasks", []byte(`[{"id":"x"}]`)))

	data, err := s.storage.Load(s.ctx, "taskflow_tasks")
	require.NoError(s.T(), err)
	assert.JSONEq(s.T(), `[{"id":"x"}]`, string(data))

	// другие ключи не затронуты
	_, err = s.storage.Load(s.ctx, "other")
	assert.ErrorIs(s.T(), err, repo.ErrSlotEmpty)
}

func (s *PostgresTestSuite) TestStorage_MigrateIdempotent() {
	assert.NoError(s.T(), s.storage.Migrate(s.ctx))
}
