package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/ledger"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/settings"
	"github.com/avoskov/retail_pos/internal/store"
)

var ErrInvalidBackup = errors.New("invalid backup format")

// Service exports and restores the four persisted collections as one JSON
// document. Restore validates the full document before any slot is written;
// after writing it publishes external-change events so live slots re-hydrate.
type Service struct {
	KV       store.KV
	Bus      *events.Bus
	Users    *registry.UserRegistry
	Products *registry.ProductRegistry
	Sales    *ledger.SaleLedger
	Settings *settings.Service
}

func (s *Service) Export(ctx context.Context) *models.Backup {
	return &models.Backup{
		Users:    s.Users.List(),
		Products: s.Products.List(),
		Sales:    s.Sales.List(),
		Settings: s.Settings.Get(),
	}
}

// firstByte returns the first non-whitespace byte of a JSON value.
func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func requireContainer(raw json.RawMessage, field string, open byte) error {
	if raw == nil {
		return fmt.Errorf("%w: missing field %q", ErrInvalidBackup, field)
	}
	if firstByte(raw) != open {
		return fmt.Errorf("%w: field %q has the wrong shape", ErrInvalidBackup, field)
	}
	return nil
}

func (s *Service) Restore(ctx context.Context, raw []byte) error {
	var doc struct {
		Users    json.RawMessage `json:"users"`
		Products json.RawMessage `json:"products"`
		Sales    json.RawMessage `json:"sales"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	for _, f := range []struct {
		raw   json.RawMessage
		field string
		open  byte
	}{
		{doc.Users, "users", '['},
		{doc.Products, "products", '['},
		{doc.Sales, "sales", '['},
		{doc.Settings, "settings", '{'},
	} {
		if err := requireContainer(f.raw, f.field, f.open); err != nil {
			return err
		}
	}

	// Decode everything before touching storage so a bad document leaves all
	// four slots exactly as they were.
	var (
		users    []models.User
		products []models.Product
		sales    []models.Sale
		appCfg   models.AppSettings
	)
	if err := json.Unmarshal(doc.Users, &users); err != nil {
		return fmt.Errorf("%w: users: %v", ErrInvalidBackup, err)
	}
	if err := json.Unmarshal(doc.Products, &products); err != nil {
		return fmt.Errorf("%w: products: %v", ErrInvalidBackup, err)
	}
	if err := json.Unmarshal(doc.Sales, &sales); err != nil {
		return fmt.Errorf("%w: sales: %v", ErrInvalidBackup, err)
	}
	if err := json.Unmarshal(doc.Settings, &appCfg); err != nil {
		return fmt.Errorf("%w: settings: %v", ErrInvalidBackup, err)
	}

	for key, value := range map[string]json.RawMessage{
		store.KeyUsers:    doc.Users,
		store.KeyProducts: doc.Products,
		store.KeySales:    doc.Sales,
		store.KeySettings: doc.Settings,
	} {
		if err := s.KV.Save(ctx, key, value); err != nil {
			return err
		}
		if s.Bus != nil {
			s.Bus.Publish(store.ExternalTopic(key), []byte(value))
		}
	}

	// A restored empty user list must not leave the system without an admin.
	return s.Users.EnsureSeeded(ctx)
}
