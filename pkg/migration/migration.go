package migration

import (
	"errors"
	"fmt"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

func newMigrate(sourceURL string, dsn string) *migrate.Migrate {
	m, err := migrate.New(sourceURL, "mysql://"+dsn)
	if err != nil {
		panic(err)
	}
	return m
}

func migrateUp(sourceURL string, dsn string) {
	m := newMigrate(sourceURL, dsn)
	err := m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		panic(err)
	}
}

func migrateDown(sourceURL string, dsn string) {
	m := newMigrate(sourceURL, dsn)
	err := m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		panic(err)
	}
}

func migrateForce(sourceURL string, dsn string, version int) {
	m := newMigrate(sourceURL, dsn)
	err := m.Force(version)
	if err != nil {
		panic(err)
	}
}

// MigrateCommand returns the migrate command group, reading migration
// files from the migrations directory next to the binary.
func MigrateCommand(dsn string) *cobra.Command {
	const sourceURL = "file://migrations"

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "migrate up all versions",
		Run: func(cmd *cobra.Command, args []string) {
			migrateUp(sourceURL, dsn)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "migrate down all versions",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDown(sourceURL, dsn)
		},
	}

	var forceVersion int
	forceCmd := &cobra.Command{
		Use:   "force",
		Short: "force the schema version, clearing the dirty flag",
		Run: func(cmd *cobra.Command, args []string) {
			migrateForce(sourceURL, dsn, forceVersion)
		},
	}
	forceCmd.Flags().IntVar(&forceVersion, "version", 0, "schema version to force")

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "database migrations",
	}
	rootCmd.AddCommand(upCmd, downCmd, forceCmd)
	return rootCmd
}

// MigrateUpForTesting ...
func MigrateUpForTesting(rootDir string, dsn string) {
	sourceURL := fmt.Sprintf("file://%s", path.Join(rootDir, "migrations"))
	migrateUp(sourceURL, dsn)
}
