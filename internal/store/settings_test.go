package store

import (
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/skillsmith/skillsmith/internal/models"
)

func TestGetSettings_DefaultsWhenAbsent(t *testing.T) {
	keyring.MockInit()
	db := newTestDB(t)

	doc, err := GetSettings(db)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if doc.SchemaVersion != currentSettingsSchemaVersion {
		t.Errorf("expected default schema version %d, got %d", currentSettingsSchemaVersion, doc.SchemaVersion)
	}
	if doc.APIToken != "" {
		t.Errorf("expected empty api token by default, got %q", doc.APIToken)
	}
}

func TestSaveSettings_RoundTripsNonSecretFields(t *testing.T) {
	keyring.MockInit()
	db := newTestDB(t)

	doc := models.SettingsDocument{DefaultModel: "sonnet", DebugMode: true}
	if err := SaveSettings(db, doc); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, err := GetSettings(db)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.DefaultModel != "sonnet" || !got.DebugMode {
		t.Errorf("unexpected settings after round trip: %+v", got)
	}
}

func TestSaveSettings_RoutesSecretsThroughKeychain(t *testing.T) {
	keyring.MockInit()
	db := newTestDB(t)

	doc := models.SettingsDocument{APIToken: "sk-test-token"}
	if err := SaveSettings(db, doc); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	var raw string
	if err := db.QueryRow(`SELECT document FROM settings WHERE id = 1`).Scan(&raw); err != nil {
		t.Fatalf("failed to read raw document: %v", err)
	}
	if strings.Contains(raw, "sk-test-token") {
		t.Error("expected api token to be extracted out of the stored document")
	}

	got, err := GetSettings(db)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.APIToken != "sk-test-token" {
		t.Errorf("expected hydrated api token, got %q", got.APIToken)
	}
}
