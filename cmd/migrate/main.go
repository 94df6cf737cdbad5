package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"multipost_bot/migrations"
)

const usage = `Usage: migrate [-db path] <command>

Commands:
  up          Apply all pending migrations
  up-one      Apply the next migration
  down        Roll back the last migration
  status      Show migration status
  version     Show current version
  reset       Roll back all migrations`

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/bot.db"), "path to the sqlite database")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := flag.Arg(0)

	if err := run(context.Background(), *dbPath, cmd); err != nil {
		slog.Error("migrate", "command", cmd, "db", *dbPath, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, cmd string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	p, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return report(p.Up(ctx))
	case "up-one":
		return report1(p.UpByOne(ctx))
	case "down":
		return report1(p.Down(ctx))
	case "reset":
		return report(p.DownTo(ctx, 0))
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			fmt.Printf("%-10s %s\n", s.State, s.Source.Path)
		}
		return nil
	case "version":
		v, err := p.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("version %d\n", v)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func report(results []*goose.MigrationResult, err error) error {
	for _, r := range results {
		fmt.Println(r)
	}
	return err
}

func report1(result *goose.MigrationResult, err error) error {
	if result != nil {
		fmt.Println(result)
	}
	return err
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
