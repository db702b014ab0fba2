package settings

import (
	"context"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/store"
)

// Default is the fixed settings document used for first runs and resets.
func Default() models.AppSettings {
	return models.AppSettings{
		StoreName: "My Store",
		Theme: models.ThemeColors{
			Primary:    "222 47% 11%",
			Background: "0 0% 100%",
			Accent:     "210 40% 96%",
		},
	}
}

// Service owns the settings singleton slot.
type Service struct {
	slot *store.Slot[models.AppSettings]
}

func NewService(ctx context.Context, kv store.KV, bus *events.Bus) *Service {
	return &Service{
		slot: store.NewSlot(ctx, kv, bus, store.KeySettings, Default),
	}
}

type Patch struct {
	StoreName         *string
	Theme             *models.ThemeColors
	NotificationSound *string
	PaymentMethods    *[]models.PaymentMethod
}

func (s *Service) Get() models.AppSettings {
	return s.slot.Get()
}

func (s *Service) Update(ctx context.Context, patch Patch) (models.AppSettings, error) {
	cur := s.slot.Get()
	if patch.StoreName != nil {
		cur.StoreName = *patch.StoreName
	}
	if patch.Theme != nil {
		cur.Theme = *patch.Theme
	}
	if patch.NotificationSound != nil {
		cur.NotificationSound = *patch.NotificationSound
	}
	if patch.PaymentMethods != nil {
		cur.PaymentMethods = *patch.PaymentMethods
	}
	if err := s.slot.Set(ctx, cur); err != nil {
		return models.AppSettings{}, err
	}
	return cur, nil
}

func (s *Service) Reset(ctx context.Context) (models.AppSettings, error) {
	def := Default()
	if err := s.slot.Set(ctx, def); err != nil {
		return models.AppSettings{}, err
	}
	return def, nil
}
