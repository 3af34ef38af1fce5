package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_schema.sql
var createSchemaSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS student_mcq_responses;
				DROP TABLE IF EXISTS topic_uploads;
				DROP TABLE IF EXISTS mcqs;
				DROP TABLE IF EXISTS users;
				DROP TABLE IF EXISTS colleges;
				DROP TABLE IF EXISTS topics;
				DROP TABLE IF EXISTS chapters;
				DROP TABLE IF EXISTS subjects;
			`)
			return err
		},
	)
}
