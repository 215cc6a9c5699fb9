package testsupport

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/db"
	"github.com/thep200/workflow-popularity/pkg/log"
)

// Config returns defaults pointed at an in-memory sqlite database unique to t.
func Config(t testing.TB) *cfg.Config {
	t.Helper()

	config := cfg.Defaults()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	config.Database.Driver = db.DriverSqlite
	config.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	return config
}

// Logger discards everything.
func Logger(t testing.TB) log.Logger {
	t.Helper()

	logger, err := log.NewCslLoggerTo(io.Discard, true)
	if err != nil {
		t.Fatalf("log.NewCslLoggerTo: %v", err)
	}
	return logger
}

// MustOpenStore opens a migrated workflow store and registers cleanup.
func MustOpenStore(t testing.TB, config *cfg.Config) *model.Workflow {
	t.Helper()

	database, err := db.NewDatabase(config)
	if err != nil {
		t.Fatalf("db.NewDatabase: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	store, err := model.NewWorkflow(config, Logger(t), database)
	if err != nil {
		t.Fatalf("model.NewWorkflow: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("store.Migrate: %v", err)
	}
	return store
}
