package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"medlearn-service/internal/app"
	"medlearn-service/internal/infra/postgres"
	"medlearn-service/internal/infra/postgres/migrations"
	infraredis "medlearn-service/internal/infra/redis"
)

func TestQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()
	seedAccounts(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	store := postgres.NewStore(db)
	loader := postgres.NewResponseLoader(pool)
	boards := infraredis.NewBoardCache(redisClient, app.NewBoardBuilder(loader), 5*time.Minute)
	live := app.NewLiveBoards()

	content := app.NewContentService(store)
	quiz := app.NewQuizService(store, loader, boards, live)

	subject, err := content.CreateSubject(ctx, "Physiology")
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	chapter, err := content.CreateChapter(ctx, subject.ID, "Cardiovascular")
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	topic, err := content.CreateTopic(ctx, chapter.ID, "Cardiac Cycle")
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}

	merged, err := content.UploadSteps(ctx, topic.ID, json.RawMessage(`[{"step":1,"content":{"title":"Systole"}}]`))
	if err != nil {
		t.Fatalf("upload steps: %v", err)
	}
	merged, err = content.UploadSteps(ctx, topic.ID, json.RawMessage(`[{"step":1,"content":{"title":"Systole v2"}},{"step":2,"content":{"title":"Diastole"}}]`))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if len(merged) != 2 || !strings.Contains(string(merged[0].Content), "v2") {
		t.Fatalf("latest upload must win: %+v", merged)
	}

	mcqs, err := quiz.UploadMCQs(ctx, topic.ID, sampleMCQs())
	if err != nil {
		t.Fatalf("upload mcqs: %v", err)
	}

	// Alice answers wrong, Bob right; Alice corrects herself on resubmit.
	if _, _, err := quiz.SubmitAnswer(ctx, topic.ID, "u1", mcqs[0].ID, "A"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := quiz.SubmitAnswer(ctx, topic.ID, "u2", mcqs[0].ID, "B"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	resp, board, err := quiz.SubmitAnswer(ctx, topic.ID, "u1", mcqs[0].ID, "B")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resp.Score != 4 {
		t.Fatalf("expected corrected score 4, got %d", resp.Score)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", board.Entries)
	}
	// Equal totals: Alice answered first, so she keeps rank 1.
	if board.Entries[0].UserID != "u1" || board.Entries[0].TotalScore != 4 {
		t.Fatalf("tie-break broken: %+v", board.Entries)
	}
	if board.Entries[0].DisplayName != "Alice" || board.Entries[0].CollegeName != "AIIMS Delhi" {
		t.Fatalf("display fields not joined: %+v", board.Entries[0])
	}

	// A fresh read comes out of the redis cache.
	cached, err := quiz.Leaderboard(ctx, topic.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(cached.Entries) != 2 || cached.Entries[0].UserID != "u1" {
		t.Fatalf("cached board disagrees: %+v", cached.Entries)
	}

	status, err := quiz.PositionalStatus(ctx, topic.ID, mcqs[0].ID, "u2")
	if err != nil {
		t.Fatalf("positional status: %v", err)
	}
	if status.User.Rank == nil || *status.User.Rank != 2 || status.User.TotalScore != 4 {
		t.Fatalf("unexpected standing: %+v", status.User)
	}
}

func sampleMCQs() []app.MCQInput {
	inputs := make([]app.MCQInput, 0, 10)
	for i := 0; i < 10; i++ {
		inputs = append(inputs, app.MCQInput{
			Question: fmt.Sprintf("Question %d?", i+1),
			Options: map[string]string{
				"A": "a", "B": "b", "C": "c", "D": "d", "E": "e",
			},
			Correct:     "B",
			Explanation: "b",
		})
	}
	return inputs
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedAccounts(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	if _, err := db.ExecContext(ctx, `INSERT INTO colleges (id, name) VALUES ('c1', 'AIIMS Delhi') ON CONFLICT (id) DO NOTHING`); err != nil {
		t.Fatalf("seed college: %v", err)
	}
	for _, row := range [][2]string{
		{"u1", "Alice"},
		{"u2", "Bob"},
	} {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO users (id, phone, name, college_id) VALUES (?, ?, ?, 'c1') ON CONFLICT (id) DO NOTHING`,
			row[0], "+91000000000"+row[0][1:], row[1]); err != nil {
			t.Fatalf("seed user %s: %v", row[0], err)
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "medlearn", "POSTGRES_PASSWORD": "medlearnpass", "POSTGRES_DB": "medlearndb"},
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
	dsn := fmt.Sprintf("postgres://medlearn:medlearnpass@%s:%s/medlearndb?sslmode=disable", host, port.Port())
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
