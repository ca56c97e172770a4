package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/pkg/crypto"
	apperrors "github.com/tempoview/tempoview/pkg/errors"
	"github.com/tempoview/tempoview/pkg/logger"
)

// Store reads and writes connections. The encryption key must be 32 bytes;
// bootstrap derives it from the vault secret with Argon2id.
type Store struct {
	db  *gorm.DB
	key []byte
	log *zap.Logger
}

// NewStore wires a store over an opened database.
func NewStore(db *gorm.DB, encryptionKey []byte) (*Store, error) {
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("store: encryption key must be 32 bytes, got %d", len(encryptionKey))
	}
	return &Store{db: db, key: encryptionKey, log: logger.WithModule("store")}, nil
}

// secretEnvelope collects the sensitive ConnectionConfig values that never
// land in the JSON config column.
type secretEnvelope struct {
	Password string `json:"password,omitempty"`
	APIToken string `json:"apiToken,omitempty"`
}

// Create persists a connection, assigning an ID when the config carries none.
// The stored config has its secrets blanked; Get reinjects them.
func (s *Store) Create(ctx context.Context, cfg *connectors.ConnectionConfig) (*Connection, error) {
	if cfg == nil {
		return nil, errors.New("store: nil connection config")
	}
	if cfg.Name == "" {
		return nil, apperrors.ErrConnectionInvalid.WithMessage("connection name is required")
	}

	sanitized := *cfg
	envelope := secretEnvelope{Password: cfg.Password}
	sanitized.Password = ""
	if cfg.V2Config != nil {
		v2 := *cfg.V2Config
		envelope.APIToken = v2.APIToken
		v2.APIToken = ""
		sanitized.V2Config = &v2
	}

	secret, err := s.sealSecret(envelope)
	if err != nil {
		return nil, err
	}

	row := &Connection{
		Name:   cfg.Name,
		DBType: cfg.DBType,
		Status: StatusDisconnected,
		Secret: secret,
	}
	row.ID = cfg.ID

	encoded, err := json.Marshal(&sanitized)
	if err != nil {
		return nil, fmt.Errorf("store: encode config: %w", err)
	}
	row.Config = encoded

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("store: create connection: %w", err)
	}

	s.log.Info("connection stored",
		zap.String("connection_id", row.ID),
		zap.String("db_type", row.DBType),
	)
	return row, nil
}

// Get loads a connection and rehydrates its full ConnectionConfig, secrets
// included.
func (s *Store) Get(ctx context.Context, id string) (*connectors.ConnectionConfig, error) {
	row, err := s.getRow(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg := &connectors.ConnectionConfig{}
	if err := json.Unmarshal(row.Config, cfg); err != nil {
		return nil, fmt.Errorf("store: decode config for %s: %w", id, err)
	}
	cfg.ID = row.ID

	envelope, err := s.openSecret(row.Secret)
	if err != nil {
		return nil, err
	}
	cfg.Password = envelope.Password
	if envelope.APIToken != "" {
		if cfg.V2Config == nil {
			cfg.V2Config = &connectors.InfluxV2Config{}
		}
		cfg.V2Config.APIToken = envelope.APIToken
	}
	return cfg, nil
}

// List returns every stored connection row. Secrets stay sealed.
func (s *Store) List(ctx context.Context) ([]Connection, error) {
	var rows []Connection
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list connections: %w", err)
	}
	return rows, nil
}

// Delete removes a stored connection.
func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Connection{})
	if result.Error != nil {
		return fmt.Errorf("store: delete connection %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConnectionNotFound
	}
	return nil
}

// UpdateStatus records the latest observed status; a transition to connected
// also stamps the connection time.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	updates := map[string]any{"status": status}
	if status == StatusConnected {
		now := time.Now()
		updates["last_connected_at"] = &now
	}
	result := s.db.WithContext(ctx).Model(&Connection{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("store: update status for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConnectionNotFound
	}
	return nil
}

// Status returns the last observed status for a connection.
func (s *Store) Status(ctx context.Context, id string) (string, error) {
	row, err := s.getRow(ctx, id)
	if err != nil {
		return "", err
	}
	return row.Status, nil
}

func (s *Store) getRow(ctx context.Context, id string) (*Connection, error) {
	row := &Connection{}
	err := s.db.WithContext(ctx).Where("id = ?", id).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load connection %s: %w", id, err)
	}
	return row, nil
}

func (s *Store) sealSecret(envelope secretEnvelope) (string, error) {
	if envelope == (secretEnvelope{}) {
		return "", nil
	}
	plain, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("store: encode secret: %w", err)
	}
	sealed, err := crypto.Encrypt(plain, s.key)
	if err != nil {
		return "", fmt.Errorf("store: encrypt secret: %w", err)
	}
	return sealed, nil
}

func (s *Store) openSecret(sealed string) (secretEnvelope, error) {
	envelope := secretEnvelope{}
	if sealed == "" {
		return envelope, nil
	}
	plain, err := crypto.Decrypt(sealed, s.key)
	if err != nil {
		return envelope, fmt.Errorf("store: decrypt secret: %w", err)
	}
	if err := json.Unmarshal(plain, &envelope); err != nil {
		return envelope, fmt.Errorf("store: decode secret: %w", err)
	}
	return envelope, nil
}
