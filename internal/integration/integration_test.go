package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"nxt-assess-service/internal/app"
	"nxt-assess-service/internal/domain"
	pgloader "nxt-assess-service/internal/infra/postgres"
	pgmigrations "nxt-assess-service/internal/infra/postgres/migrations"
	redisinfra "nxt-assess-service/internal/infra/redis"
)

const rawSetPayload = `{
	"questions": [
		{
			"id": "q1",
			"question_text": "Pick the capital of France",
			"options_type": "DEFAULT",
			"options": [
				{"id": "o1", "text": "Lyon", "is_correct": "false"},
				{"id": "o2", "text": "Paris", "is_correct": "true"}
			]
		},
		{
			"id": "q2",
			"question_text": "Pick the largest planet",
			"options_type": "DEFAULT",
			"options": [
				{"id": "o3", "text": "Jupiter", "is_correct": "true"},
				{"id": "o4", "text": "Mars", "is_correct": "false"}
			]
		}
	]
}`

func TestAssessmentEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, "set-1", rawSetPayload)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewQuestionLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questionRepo := redisinfra.NewQuestionRepository(redisClient, loader, 5*time.Minute)
	attempts := redisinfra.NewAttemptStore(redisClient, 5*time.Minute)
	service := app.NewAssessmentService(attempts, questionRepo, app.NewTickerCountdown, 600, zerolog.Nop())

	attempt, err := service.Start(ctx, "set-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := attempt.Lifecycle(); got != domain.LifecycleReady {
		t.Fatalf("expected Ready, got %s", got)
	}

	summary, err := service.SelectOption(attempt.ID(), "q1", "o2")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if summary.AnsweredCount != 1 || summary.UnansweredCount != 1 {
		t.Fatalf("expected 1 answered / 1 unanswered, got %+v", summary)
	}

	result, err := service.Submit(attempt.ID())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 {
		t.Fatalf("expected score 1, got %d", result.Score)
	}

	// A second attempt against the same set must hit the redis cache, not
	// Postgres. Drop the table to prove it.
	if _, err := pool.Exec(ctx, `DROP TABLE question_sets`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	second, err := service.Start(ctx, "set-1")
	if err != nil {
		t.Fatalf("start cached: %v", err)
	}
	if got := second.Lifecycle(); got != domain.LifecycleReady {
		t.Fatalf("expected cached start to be Ready, got %s", got)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assess", "POSTGRES_PASSWORD": "assesspass", "POSTGRES_DB": "assessdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://assess:assesspass@%s:%s/assessdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestionSet(t *testing.T, ctx context.Context, dsn, setID, payload string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, setID, payload); err != nil {
		t.Fatalf("insert question set: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
