package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/kv"
	"github.com/gestaozabele/painelpregao/internal/mailrelay"
	"github.com/gestaozabele/painelpregao/internal/monitor"
	"github.com/gestaozabele/painelpregao/internal/reset"
	"github.com/gestaozabele/painelpregao/internal/support"
)

type errorKind struct {
	status  int
	code    string
	message string
}

// errorTable traduz erros de domínio em status, código e mensagem exibida.
var errorTable = []struct {
	target error
	kind   errorKind
}{
	{identity.ErrDuplicateEmail, errorKind{http.StatusConflict, "DUPLICATE_EMAIL", "Este e-mail já está cadastrado"}},
	{identity.ErrDuplicateCNPJ, errorKind{http.StatusConflict, "DUPLICATE_CNPJ", "Este CNPJ já está cadastrado"}},
	{identity.ErrCompanyNotFound, errorKind{http.StatusNotFound, "COMPANY_NOT_FOUND", "Empresa não encontrada"}},
	{identity.ErrUserNotFound, errorKind{http.StatusNotFound, "USER_NOT_FOUND", "Usuário não encontrado"}},
	{identity.ErrInvalidPassword, errorKind{http.StatusUnauthorized, "INVALID_PASSWORD", "Senha incorreta"}},
	{identity.ErrMissingField, errorKind{http.StatusBadRequest, "VALIDATION", "Preencha todos os campos obrigatórios"}},
	{reset.ErrInvalidEmail, errorKind{http.StatusBadRequest, "INVALID_EMAIL", "Por favor, insira um e-mail válido"}},
	{reset.ErrInvalidState, errorKind{http.StatusConflict, "INVALID_STATE", "Operação não permitida nesta etapa"}},
	{reset.ErrPasswordMismatch, errorKind{http.StatusUnprocessableEntity, "PASSWORD_MISMATCH", "As senhas não coincidem"}},
	{reset.ErrFlowNotFound, errorKind{http.StatusNotFound, "FLOW_NOT_FOUND", "Recuperação de senha não encontrada"}},
	{mailrelay.ErrCodeExpired, errorKind{http.StatusGone, "CODE_EXPIRED", mailrelay.MsgCodeExpired}},
	{mailrelay.ErrCodeMismatch, errorKind{http.StatusUnprocessableEntity, "CODE_MISMATCH", mailrelay.MsgCodeInvalid}},
	{mailrelay.ErrMailDelivery, errorKind{http.StatusBadGateway, "MAIL_DELIVERY", mailrelay.MsgSendFailed}},
	{monitor.ErrItemNotFound, errorKind{http.StatusNotFound, "ITEM_NOT_FOUND", "Pregão não encontrado"}},
	{monitor.ErrInvalidStatus, errorKind{http.StatusBadRequest, "INVALID_STATUS", "Status de pregão inválido"}},
	{monitor.ErrInvalidAlert, errorKind{http.StatusBadRequest, "VALIDATION", "Informe título e conteúdo do alerta"}},
	{support.ErrEmptyDescription, errorKind{http.StatusBadRequest, "EMPTY_DESCRIPTION", "Por favor, descreva o problema antes de enviar."}},
	{support.ErrNotFound, errorKind{http.StatusNotFound, "TICKET_NOT_FOUND", "Chamado não encontrado"}},
	{support.ErrInvalidStatus, errorKind{http.StatusBadRequest, "INVALID_STATUS", "Status de chamado inválido"}},
	{support.ErrInvalidTransition, errorKind{http.StatusConflict, "INVALID_TRANSITION", "O chamado não pode voltar de status"}},
	{kv.ErrStorage, errorKind{http.StatusServiceUnavailable, "STORAGE", "armazenamento indisponível"}},
}

// writeDomainError responde com o erro mapeado; desconhecidos viram 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var weak *auth.WeakPasswordError
	if errors.As(err, &weak) {
		WriteError(w, http.StatusUnprocessableEntity, "PASSWORD_TOO_WEAK", weak.Error(), map[string]any{"violations": weak.Messages()})
		return
	}
	var delivery *mailrelay.MailDeliveryError
	if errors.As(err, &delivery) {
		msg := delivery.Message
		if msg == "" {
			msg = mailrelay.MsgSendFailed
		}
		log.Warn().Err(err).Msg("falha na entrega do código")
		WriteError(w, http.StatusBadGateway, "MAIL_DELIVERY", msg, nil)
		return
	}

	for _, entry := range errorTable {
		if errors.Is(err, entry.target) {
			if entry.kind.status >= http.StatusInternalServerError {
				log.Error().Err(err).Str("code", entry.kind.code).Msg("falha ao atender requisição")
			}
			WriteError(w, entry.kind.status, entry.kind.code, entry.kind.message, nil)
			return
		}
	}

	log.Error().Err(err).Msg("erro não mapeado")
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}
