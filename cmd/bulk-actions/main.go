// Package main is the entrypoint for the bulk-actions service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/morezero/bulk-actions/internal/config"
	"github.com/morezero/bulk-actions/internal/server"
	"github.com/morezero/bulk-actions/pkg/adapters"
	"github.com/morezero/bulk-actions/pkg/bootstrap"
	"github.com/morezero/bulk-actions/pkg/builtin"
	"github.com/morezero/bulk-actions/pkg/db"
	"github.com/morezero/bulk-actions/pkg/dispatcher"
	"github.com/morezero/bulk-actions/pkg/registry"
)

const usage = `Usage: bulk-actions [command]
       bulk-actions serve              Start the service (HTTP, NATS RPC, dispatch events).
       bulk-actions migrate up         Run database migrations.
       bulk-actions migrate status     Show migration status.
       bulk-actions ensure-db [name]   Create database if missing (default: name in DATABASE_URL).
       bulk-actions manifest [file]    Validate an action manifest and print the screens it wires.

Commands:
  serve            (default) Start the service.
  migrate up       Run database migrations only.
  migrate status   Show which schema tables exist.
  ensure-db [name] Create the database on the DATABASE_URL host.
  manifest [file]  Check a manifest (default: BULK_ACTIONS_MANIFEST_FILE, then search paths, then built-in).

Environment: COMMS_URL, DATABASE_URL, MIGRATION_PATH, BULK_ACTIONS_MANIFEST_FILE, HTTP_PORT, LOG_LEVEL.
`

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("bulk-actions: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "serve", "":
		return server.Run()
	case "migrate":
		if len(args) < 2 {
			return fmt.Errorf("migrate: require subcommand (up, status): %w", errUsage)
		}
		switch args[1] {
		case "up":
			return runMigrateUp(out)
		case "status":
			return runMigrateStatus(out)
		default:
			return fmt.Errorf("migrate: unknown subcommand %q: %w", args[1], errUsage)
		}
	case "ensure-db":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		return runEnsureDB(out, name)
	case "manifest":
		path := ""
		if len(args) > 1 {
			path = args[1]
		}
		return runManifest(out, path)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func loadDBConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrateUp(out io.Writer) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	fmt.Fprintf(out, "Applied %d migration(s) from %s: %s\n", len(migrations), cfg.MigrationPath, strings.Join(db.MigrationNames(migrations), ", "))
	return nil
}

func runMigrateStatus(out io.Writer) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	st, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	if err != nil {
		return err
	}
	if st.Applied() {
		fmt.Fprintf(out, "Migration status: applied (%d migrations in %s)\n", len(st.Migrations), cfg.MigrationPath)
	} else {
		fmt.Fprintf(out, "Migration status: not applied, missing %s (run 'bulk-actions migrate up')\n", strings.Join(st.Missing, ", "))
	}
	return nil
}

func runEnsureDB(out io.Writer, name string) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	target := cfg.DatabaseURL
	if name != "" {
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		u.Path = "/" + name
		target = u.String()
	}
	if err := db.EnsureDatabase(context.Background(), target); err != nil {
		return err
	}
	dbName, _ := db.DatabaseName(target)
	fmt.Fprintf(out, "Database %q is ready.\n", dbName)
	return nil
}

// runManifest applies the manifest to a throwaway wiring, so it reports the
// same errors serve would.
func runManifest(out io.Writer, path string) error {
	if path == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.ManifestFile
	}
	m, err := bootstrap.LoadManifest(path)
	if err != nil {
		return err
	}

	reg := registry.NewRegistry()
	w := adapters.NewWiring(reg, dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{Registry: reg}))
	if err := bootstrap.Apply(m, w, builtin.NewCatalog(nil)); err != nil {
		return err
	}

	fmt.Fprintf(out, "Manifest %s@%s\n", m.Name, m.Version)
	for _, b := range w.Bindings() {
		fmt.Fprintf(out, "  %s (%s):", b.Screen(), b.Scope())
		for _, def := range reg.List(b.Scope()).All() {
			fmt.Fprintf(out, " %s[%s]", def.Key, def.Capability)
		}
		fmt.Fprintln(out)
	}
	return nil
}
