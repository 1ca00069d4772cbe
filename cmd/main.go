package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"OrderOps/internal/appmanager"
	"OrderOps/internal/config"
	"OrderOps/internal/store"
	"OrderOps/internal/store/pgstore"
	"OrderOps/internal/store/sqlstore"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// InitStore opens the store selected by STORE_DRIVER and applies the schema.
func InitStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch driver := config.StoreDriver(); driver {
	case config.DriverPGX:
		st, err = pgstore.Open(ctx, config.PostgresDSN())
	case config.DriverPostgres:
		st, err = sqlstore.Open(sqlstore.Postgres, config.PostgresDSN())
	case config.DriverSQLite:
		st, err = sqlstore.Open(sqlstore.SQLite, config.SQLitePath())
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if m, ok := st.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func main() {
	// Load .env for local dev
	_ = godotenv.Load("../.env")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := InitStore(ctx)
	cancel()
	if err != nil {
		log.Fatal("failed to open store:", err)
	}
	defer st.Close()
	appmanager.SetStore(st)

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence(config.ServicesFile())
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	if err := manager.AutoRegisterServices(servicesCfg); err != nil {
		log.Fatal("failed to register services:", err)
	}

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Println("failed to stop:", err)
	}
}
