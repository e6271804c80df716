package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/secrets"
)

const currentSettingsSchemaVersion = 1

// keychain key names; stable across schema versions so a rotated document
// format never orphans a stored secret.
const (
	keyAPIToken   = "api_token"
	keyOAuthToken = "oauth_token"
)

// GetSettings returns the settings document with secret fields hydrated
// from the OS keychain where available. A read with no existing row returns
// the zero-value document with its schema version set (§4.1: "a read
// returns default values where absent").
func GetSettings(db *sql.DB) (models.SettingsDocument, error) {
	var raw string
	err := db.QueryRowContext(context.Background(), `SELECT document FROM settings WHERE id = 1`).Scan(&raw)
	doc := models.SettingsDocument{SchemaVersion: currentSettingsSchemaVersion}
	if err == sql.ErrNoRows {
		return doc, nil
	}
	if err != nil {
		return models.SettingsDocument{}, fmt.Errorf("get settings: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.SettingsDocument{}, fmt.Errorf("get settings: decode document: %w", err)
	}

	if v, ok := secrets.Get(keyAPIToken); ok {
		doc.APIToken = v
	}
	if v, ok := secrets.Get(keyOAuthToken); ok {
		doc.OAuthToken = v
	}
	return doc, nil
}

// SaveSettings persists doc. Secret fields are extracted and routed to the
// OS keychain when available; otherwise they are left in the stored
// document. The choice is invisible to callers of GetSettings (§4.1, §6.3).
func SaveSettings(db *sql.DB, doc models.SettingsDocument) error {
	doc.SchemaVersion = currentSettingsSchemaVersion

	toStore := doc
	toStore.APIToken = extractSecret(keyAPIToken, doc.APIToken)
	toStore.OAuthToken = extractSecret(keyOAuthToken, doc.OAuthToken)

	raw, err := json.Marshal(toStore)
	if err != nil {
		return fmt.Errorf("save settings: encode document: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
		INSERT INTO settings (id, document, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP
	`, string(raw))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// extractSecret routes value to the keychain when non-empty, returning the
// residue that should remain in the document: empty on success, value
// itself when the keychain is unavailable or value was cleared.
func extractSecret(key, value string) string {
	if value == "" {
		secrets.Delete(key)
		return ""
	}
	if secrets.Set(key, value) {
		return ""
	}
	return value
}
