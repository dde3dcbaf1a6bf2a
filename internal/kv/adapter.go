// Package kv persiste coleções JSON por perfil de dispositivo sobre um backend chave-valor.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

// Version é a versão do envelope gravado; valores sem envelope são tratados como versão 0.
const Version = 1

// Chaves persistidas por perfil.
const (
	KeyUsers           = "users"
	KeyCompanies       = "companies"
	KeyCurrentUser     = "currentUser"
	KeyMonitoringItems = "monitoringItems"
	KeyAlerts          = "alerts"
	KeySupportTickets  = "supportTickets"
)

var (
	// ErrNotFound é devolvido pelos backends quando a chave não existe.
	ErrNotFound = errors.New("chave inexistente")
	// ErrStorage indica falha ao ler ou gravar no armazenamento.
	ErrStorage = errors.New("falha no armazenamento")
)

// Backend guarda bytes opacos por chave.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
}

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Adapter serializa valores em JSON versionado dentro de um namespace.
type Adapter struct {
	backend   Backend
	namespace string
	logger    zerolog.Logger
}

// New cria adapter para o namespace (perfil) informado.
func New(backend Backend, namespace string, logger zerolog.Logger) *Adapter {
	return &Adapter{
		backend:   backend,
		namespace: namespace,
		logger:    logger.With().Str("component", "kv").Str("profile", namespace).Logger(),
	}
}

// Namespace devolve o perfil atendido pelo adapter.
func (a *Adapter) Namespace() string {
	return a.namespace
}

func (a *Adapter) key(k string) string {
	if a.namespace == "" {
		return k
	}
	return a.namespace + ":" + k
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: Version, Data: data})
}

// Save grava o valor. Falhas são registradas em log e devolvidas embrulhando ErrStorage.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("kv: serialização falhou")
		return fmt.Errorf("%w: serializar %s: %w", ErrStorage, key, err)
	}
	if err := a.backend.Set(ctx, a.key(key), raw); err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("kv: gravação falhou")
		return fmt.Errorf("%w: gravar %s: %w", ErrStorage, key, err)
	}
	return nil
}

// SaveAll grava várias chaves de uma vez, atomicamente quando o backend suporta.
func (a *Adapter) SaveAll(ctx context.Context, values map[string]any) error {
	entries := make(map[string][]byte, len(values))
	for key, value := range values {
		raw, err := encode(value)
		if err != nil {
			a.logger.Error().Err(err).Str("key", key).Msg("kv: serialização falhou")
			return fmt.Errorf("%w: serializar %s: %w", ErrStorage, key, err)
		}
		entries[a.key(key)] = raw
	}
	if err := a.backend.SetMany(ctx, entries); err != nil {
		a.logger.Error().Err(err).Int("keys", len(entries)).Msg("kv: gravação em lote falhou")
		return fmt.Errorf("%w: gravar lote: %w", ErrStorage, err)
	}
	return nil
}

// Load preenche dest com o valor salvo. Retorna false quando a chave não existe,
// quando o conteúdo está corrompido ou quando foi gravado por versão futura.
// dest só é alterado quando o retorno é true.
func (a *Adapter) Load(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := a.backend.Get(ctx, a.key(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("kv: leitura falhou")
		return false, fmt.Errorf("%w: ler %s: %w", ErrStorage, key, err)
	}

	payload, version, err := unwrap(raw)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("kv: conteúdo corrompido ignorado")
		return false, nil
	}
	if version > Version {
		a.logger.Warn().Int("version", version).Str("key", key).Msg("kv: versão desconhecida ignorada")
		return false, nil
	}

	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false, fmt.Errorf("kv: destino de %s deve ser ponteiro", key)
	}
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(payload, fresh.Interface()); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("kv: conteúdo corrompido ignorado")
		return false, nil
	}
	target.Elem().Set(fresh.Elem())
	return true, nil
}

// Remove apaga a chave; chave inexistente não é erro.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	if err := a.backend.Delete(ctx, a.key(key)); err != nil && !errors.Is(err, ErrNotFound) {
		a.logger.Error().Err(err).Str("key", key).Msg("kv: remoção falhou")
		return fmt.Errorf("%w: remover %s: %w", ErrStorage, key, err)
	}
	return nil
}

func unwrap(raw []byte) (json.RawMessage, int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, 0, errors.New("valor vazio")
	}
	if !json.Valid(trimmed) {
		return nil, 0, errors.New("json inválido")
	}

	if trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, 0, err
		}
		rawVersion, hasVersion := probe["version"]
		data, hasData := probe["data"]
		if hasVersion && hasData && len(probe) == 2 {
			var version int
			if err := json.Unmarshal(rawVersion, &version); err == nil {
				return data, version, nil
			}
		}
	}

	return trimmed, 0, nil
}
