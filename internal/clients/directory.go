package clients

import (
	"encoding/json"
	"fmt"
	"os"

	"calbook/pkg/config"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/model"
	"calbook/pkg/sanitizer"
)

// Directory is the read-only client roster bookings reference by id. It is
// loaded once at startup; the booking core never writes clients.
type Directory struct {
	clients []model.Client
	byID    map[string]model.Client
}

// defaultClients seeds the roster when no clients file is configured, mainly
// for local development.
var defaultClients = []model.Client{
	{ID: "client-1", Name: "Dana Levi", Phone: "+972501234567"},
	{ID: "client-2", Name: "Noa Cohen", Phone: "+972521234567"},
	{ID: "client-3", Name: "Tom Harris", Phone: "+14155552671"},
}

// Load reads the roster from cfg.ClientsFile, a JSON array of clients. An
// empty path falls back to the built-in development roster.
func Load(cfg *config.Config) (*Directory, error) {
	roster := defaultClients
	if cfg.ClientsFile != "" {
		raw, err := os.ReadFile(cfg.ClientsFile)
		if err != nil {
			return nil, fmt.Errorf("read clients file %s: %w", cfg.ClientsFile, err)
		}
		roster = nil
		if err := json.Unmarshal(raw, &roster); err != nil {
			return nil, fmt.Errorf("parse clients file %s: %w", cfg.ClientsFile, err)
		}
	}

	return New(roster)
}

// New builds a directory from an explicit roster, normalizing names and
// phone numbers the same way the booking write path does.
func New(roster []model.Client) (*Directory, error) {
	d := &Directory{byID: make(map[string]model.Client, len(roster))}
	for _, c := range roster {
		if c.ID == "" {
			return nil, fmt.Errorf("client %q has no id", c.Name)
		}
		if _, exists := d.byID[c.ID]; exists {
			return nil, fmt.Errorf("duplicate client id %s", c.ID)
		}

		c.Name = sanitizer.NormalizeName(c.Name)
		if normalized := sanitizer.NormalizePhone(c.Phone); normalized != "" {
			c.Phone = normalized
		}

		d.byID[c.ID] = c
		d.clients = append(d.clients, c)
	}
	return d, nil
}

// List returns the roster in file order.
func (d *Directory) List() []model.Client {
	return d.clients
}

func (d *Directory) Get(id string) (*model.Client, error) {
	c, ok := d.byID[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("client", id)
	}
	return &c, nil
}

func (d *Directory) Len() int {
	return len(d.clients)
}
