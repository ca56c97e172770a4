package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tempoview/tempoview/internal/api"
	"github.com/tempoview/tempoview/internal/app"
	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/internal/database"
	"github.com/tempoview/tempoview/internal/dbservice"
	"github.com/tempoview/tempoview/internal/store"
	"github.com/tempoview/tempoview/pkg/crypto"
	"github.com/tempoview/tempoview/pkg/logger"
)

// vaultKeySalt is the fixed application salt for deriving the connection
// secret key from a vault passphrase shorter than 32 bytes.
var vaultKeySalt = []byte("tempoview.vault.key.v1")

// runtimeStack bundles the long-lived components behind the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Store      *store.Store
	Dispatcher *bridge.Dispatcher
	Router     *gin.Engine
}

// bootstrapRuntime initialises the store, the command bridge and the router.
func bootstrapRuntime(_ context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	key, err := resolveVaultKey(cfg.Vault.EncryptionKey)
	if err != nil {
		return nil, err
	}

	stack.Store, err = store.NewStore(stack.DB, key)
	if err != nil {
		return nil, fmt.Errorf("initialise store: %w", err)
	}

	stack.Dispatcher = bridge.NewDispatcher()
	if err := store.RegisterHandlers(stack.Dispatcher, stack.Store); err != nil {
		return nil, fmt.Errorf("register bridge handlers: %w", err)
	}
	bridge.SetDefault(stack.Dispatcher)

	// Builtin connectors resolve the default bridge lazily; register them
	// after SetDefault.
	connectors.GetConnectorFactory()

	services := dbservice.GetDatabaseServiceFactory()
	services.SetInvoker(stack.Dispatcher)

	stack.Router, err = api.NewRouter(stack.Store, services, cfg)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// resolveVaultKey decodes the configured key and stretches short passphrases
// to the 32 bytes AES-256-GCM requires.
func resolveVaultKey(configured string) ([]byte, error) {
	raw, err := app.DecodeKey(configured)
	if err != nil {
		return nil, fmt.Errorf("decode vault encryption key: %w", err)
	}
	if len(raw) == 32 {
		return raw, nil
	}
	key, err := crypto.DeriveKeyArgon2id(raw, vaultKeySalt, crypto.DefaultArgon2Params())
	if err != nil {
		return nil, fmt.Errorf("derive vault encryption key: %w", err)
	}
	return key, nil
}

// Shutdown closes the stack's resources, aggregating every failure.
func (s *runtimeStack) Shutdown(log *zap.Logger) error {
	if s == nil {
		return nil
	}

	var err error
	if s.DB != nil {
		sqlDB, dbErr := s.DB.DB()
		if dbErr != nil {
			err = multierr.Append(err, fmt.Errorf("obtain sql db: %w", dbErr))
		} else if closeErr := sqlDB.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close database: %w", closeErr))
		}
	}

	if err != nil && log != nil {
		log.Warn("shutdown finished with errors", zap.Error(err))
	}
	return err
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := store.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))),
	)
	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Unknown drivers are rejected by database.Open.
	}

	return dbCfg
}
