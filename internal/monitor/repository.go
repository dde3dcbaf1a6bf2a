package monitor

import (
	"context"

	"github.com/gestaozabele/painelpregao/internal/kv"
)

// Repository lê e grava as coleções monitoringItems e alerts.
type Repository struct {
	kv *kv.Adapter
}

func NewRepository(adapter *kv.Adapter) *Repository {
	return &Repository{kv: adapter}
}

// Items devolve os pregões e se a coleção já existe.
func (r *Repository) Items(ctx context.Context) ([]Item, bool, error) {
	var items []Item
	found, err := r.kv.Load(ctx, kv.KeyMonitoringItems, &items)
	return items, found, err
}

func (r *Repository) SaveItems(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	return r.kv.Save(ctx, kv.KeyMonitoringItems, items)
}

// Alerts devolve o feed e se a coleção já existe.
func (r *Repository) Alerts(ctx context.Context) ([]Alert, bool, error) {
	var alerts []Alert
	found, err := r.kv.Load(ctx, kv.KeyAlerts, &alerts)
	return alerts, found, err
}

func (r *Repository) SaveAlerts(ctx context.Context, alerts []Alert) error {
	if alerts == nil {
		alerts = []Alert{}
	}
	return r.kv.Save(ctx, kv.KeyAlerts, alerts)
}
