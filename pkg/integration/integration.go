package integration

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/stampme/stampme/config"
	"github.com/stampme/stampme/pkg/migration"

	// for integration test, must not be imported in any main.go
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// TestCase ...
type TestCase struct {
	DB   *sqlx.DB
	Conf config.Config
}

var initOnce sync.Once

var globalConf config.Config
var globalDB *sqlx.DB

// NewTestCase skips the test unless STAMPME_TEST_MYSQL is set, then
// migrates the test database and connects to it once per test binary.
func NewTestCase(t *testing.T) *TestCase {
	if os.Getenv("STAMPME_TEST_MYSQL") == "" {
		t.Skip("set STAMPME_TEST_MYSQL to run MySQL integration tests")
	}

	initOnce.Do(func() {
		rootDir := findRootDir()

		conf := config.LoadTestConfig(rootDir)
		migration.MigrateUpForTesting(rootDir, conf.MySQL.DSN())

		db := conf.MySQL.MustConnect()

		globalConf = conf
		globalDB = db
	})

	return &TestCase{
		Conf: globalConf,
		DB:   globalDB,
	}
}

// Truncate empties the table. Foreign key checks are disabled on a
// dedicated connection because MySQL refuses to truncate a table
// referenced by foreign keys, even when the referencing tables are
// empty.
func (tc *TestCase) Truncate(table string) {
	ctx := context.Background()

	conn, err := tc.DB.Conn(ctx)
	if err != nil {
		panic(err)
	}
	defer func() { _ = conn.Close() }()

	statements := []string{
		"SET FOREIGN_KEY_CHECKS = 0",
		fmt.Sprintf("TRUNCATE %s", table),
		"SET FOREIGN_KEY_CHECKS = 1",
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			panic(err)
		}
	}
}

func findRootDir() string {
	workdir, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	directory := workdir
	for {
		files, err := ioutil.ReadDir(directory)
		if err != nil {
			panic(err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if file.Name() == "go.mod" {
				return directory
			}
		}

		directory = path.Dir(directory)
	}
}
