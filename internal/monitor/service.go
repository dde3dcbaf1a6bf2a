// Package monitor mantém os pregões acompanhados e o feed de alertas.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/util"
)

const notifyThrottle = 10 * time.Minute

// Service aplica as regras sobre pregões e alertas de um perfil.
type Service struct {
	repo     *Repository
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time

	mu           sync.Mutex
	lastNotified map[string]time.Time
}

// NewService aceita notifier nil.
func NewService(repo *Repository, logger zerolog.Logger, notifier Notifier) *Service {
	return &Service{
		repo:         repo,
		notifier:     notifier,
		logger:       logger.With().Str("component", "monitor").Logger(),
		now:          util.Now,
		lastNotified: make(map[string]time.Time),
	}
}

// InitializeExampleData semeia pregões e alertas apenas quando as coleções não existem.
// Falha de leitura impede a semeadura para não sobrescrever dados existentes.
func (s *Service) InitializeExampleData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, itemsFound, err := s.repo.Items(ctx)
	if err != nil {
		return fmt.Errorf("ler pregões: %w", err)
	}
	_, alertsFound, err := s.repo.Alerts(ctx)
	if err != nil {
		return fmt.Errorf("ler alertas: %w", err)
	}

	if !itemsFound {
		if err := s.repo.SaveItems(ctx, exampleItems()); err != nil {
			return err
		}
		s.logger.Info().Msg("pregões de exemplo criados")
	}
	if !alertsFound {
		if err := s.repo.SaveAlerts(ctx, exampleAlerts(s.now())); err != nil {
			return err
		}
		s.logger.Info().Msg("alertas de exemplo criados")
	}
	return nil
}

// Items lista pregões na ordem de inserção.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	items, _, err := s.repo.Items(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// ItemsByStatus filtra preservando a ordem.
func (s *Service) ItemsByStatus(ctx context.Context, status Status) ([]Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

// Item busca um pregão.
func (s *Service) Item(ctx context.Context, id string) (*Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, ErrItemNotFound
}

// AddItem cadastra um pregão; status vazio vira active.
func (s *Service) AddItem(ctx context.Context, input NewItem) (*Item, error) {
	if input.Status == "" {
		input.Status = StatusActive
	}
	if _, err := ParseStatus(string(input.Status)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, _, err := s.repo.Items(ctx)
	if err != nil {
		return nil, err
	}

	item := Item{
		ID:      util.NewULID(),
		Title:   strings.TrimSpace(input.Title),
		Source:  strings.TrimSpace(input.Source),
		Portal:  strings.TrimSpace(input.Portal),
		UASG:    strings.TrimSpace(input.UASG),
		Company: strings.TrimSpace(input.Company),
		Number:  strings.TrimSpace(input.Number),
		Date:    strings.TrimSpace(input.Date),
		Status:  input.Status,
		Message: strings.TrimSpace(input.Message),
		Value:   input.Value,
	}
	if err := s.repo.SaveItems(ctx, append(items, item)); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem aplica alteração parcial. Mudança de status gera alerta no feed.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) (*Item, error) {
	if patch.Status != nil {
		if _, err := ParseStatus(string(*patch.Status)); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()

	items, _, err := s.repo.Items(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrItemNotFound
	}

	it := items[idx]
	previous := it.Status
	applyPatch(&it, patch)
	items[idx] = it

	if err := s.repo.SaveItems(ctx, items); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	var alert *Alert
	if it.Status != previous {
		a := statusChangeAlert(it, s.now())
		if err := s.appendAlertLocked(ctx, a); err != nil {
			s.logger.Warn().Err(err).Str("item_id", it.ID).Msg("alerta de mudança de status não gravado")
		} else {
			alert = &a
		}
	}
	s.mu.Unlock()

	if alert != nil {
		s.dispatch(ctx, *alert, it.ID)
	}
	return &it, nil
}

func applyPatch(it *Item, p ItemPatch) {
	if p.Title != nil {
		it.Title = strings.TrimSpace(*p.Title)
	}
	if p.Source != nil {
		it.Source = strings.TrimSpace(*p.Source)
	}
	if p.Portal != nil {
		it.Portal = strings.TrimSpace(*p.Portal)
	}
	if p.UASG != nil {
		it.UASG = strings.TrimSpace(*p.UASG)
	}
	if p.Company != nil {
		it.Company = strings.TrimSpace(*p.Company)
	}
	if p.Number != nil {
		it.Number = strings.TrimSpace(*p.Number)
	}
	if p.Date != nil {
		it.Date = strings.TrimSpace(*p.Date)
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	if p.Message != nil {
		it.Message = strings.TrimSpace(*p.Message)
	}
	if p.Value != nil {
		it.Value = *p.Value
	}
}

func statusChangeAlert(it Item, now time.Time) Alert {
	ref := fmt.Sprintf("%s %s - UASG %s", it.Title, it.Number, it.UASG)
	a := Alert{ID: util.NewULID(), Type: AlertNormal, CreatedAt: now}
	switch it.Status {
	case StatusSuspended:
		a.Title = "URGENTE"
		a.Content = "SUSPENSÃO DE LICITAÇÃO - " + ref
		a.Type = AlertUrgent
	case StatusClosed:
		a.Title = "Pregão encerrado"
		a.Content = "Pregão encerrado - " + ref
	default:
		a.Title = "Pregão retomado"
		a.Content = "Pregão em andamento - " + ref
	}
	return a
}

// RemoveItem apaga o pregão.
func (s *Service) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, _, err := s.repo.Items(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items = append(items[:i], items[i+1:]...)
			return s.repo.SaveItems(ctx, items)
		}
	}
	return ErrItemNotFound
}

// Alerts lista o feed na ordem de inserção.
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	alerts, _, err := s.repo.Alerts(ctx)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

// AddAlert acrescenta ao feed; alertas urgentes seguem para o notifier.
func (s *Service) AddAlert(ctx context.Context, title, content string, kind AlertType) (*Alert, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrInvalidAlert
	}
	if kind != AlertUrgent {
		kind = AlertNormal
	}

	a := Alert{ID: util.NewULID(), Title: title, Content: content, Type: kind, CreatedAt: s.now()}

	s.mu.Lock()
	err := s.appendAlertLocked(ctx, a)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, a, "")
	return &a, nil
}

func (s *Service) appendAlertLocked(ctx context.Context, a Alert) error {
	alerts, _, err := s.repo.Alerts(ctx)
	if err != nil {
		return err
	}
	return s.repo.SaveAlerts(ctx, append(alerts, a))
}

func (s *Service) dispatch(ctx context.Context, a Alert, itemID string) {
	if s.notifier == nil || a.Type != AlertUrgent {
		return
	}
	if itemID != "" && s.shouldThrottle(itemID) {
		s.logger.Debug().Str("item_id", itemID).Msg("notificação suprimida por throttle")
		return
	}
	if err := s.notifier.Notify(ctx, a); err != nil {
		s.logger.Warn().Err(err).Str("alert_id", a.ID).Msg("falha ao notificar alerta")
	}
}

func (s *Service) shouldThrottle(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if last, ok := s.lastNotified[itemID]; ok && now.Sub(last) < notifyThrottle {
		return true
	}
	s.lastNotified[itemID] = now
	return false
}
