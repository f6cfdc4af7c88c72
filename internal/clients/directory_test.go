package clients

import (
	"os"
	"path/filepath"
	"testing"

	"calbook/pkg/config"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/model"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	d, err := Load(&config.Config{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() == 0 {
		t.Fatal("default roster should not be empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	roster := `[
		{"id": "c-1", "name": "  dana   levi ", "phone": "+14155552671"},
		{"id": "c-2", "name": "Noa Cohen", "phone": "+972501234567"}
	]`
	if err := os.WriteFile(path, []byte(roster), 0o600); err != nil {
		t.Fatal(err)
	}

	d, err := Load(&config.Config{ClientsFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("roster size = %d, want 2", d.Len())
	}

	c, err := d.Get("c-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Name != "dana levi" {
		t.Errorf("name not whitespace-normalized, got %q", c.Name)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(&config.Config{ClientsFile: "/nonexistent/clients.json"})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]model.Client{
		{ID: "c-1", Name: "Dana Levi"},
		{ID: "c-1", Name: "Noa Cohen"},
	})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestGetUnknownClient(t *testing.T) {
	d, err := New([]model.Client{{ID: "c-1", Name: "Dana Levi"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = d.Get("c-404")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
