package monitor

import (
	"time"

	"github.com/shopspring/decimal"
)

func exampleItems() []Item {
	return []Item{
		{
			ID:      "item-1",
			Title:   "Pregão Eletrônico",
			Source:  "ComprasNet",
			Portal:  "ComprasNet",
			UASG:    "853000",
			Company: "MINISTÉRIO DA ECONOMIA",
			Number:  "76/2023",
			Date:    "15/03/2024",
			Status:  StatusSuspended,
			Message: "O edital foi suspenso para retificação conforme decisão da administração",
			Value:   decimal.NewFromInt(185000),
		},
		{
			ID:      "item-2",
			Title:   "Pregão Eletrônico",
			Source:  "ComprasNet",
			Portal:  "ComprasNet",
			UASG:    "160100",
			Company: "EXÉRCITO BRASILEIRO",
			Number:  "45/2024",
			Date:    "20/03/2024",
			Status:  StatusActive,
			Message: "O pregão está em andamento",
			Value:   decimal.NewFromInt(267500),
		},
		{
			ID:      "item-3",
			Title:   "Pregão Eletrônico",
			Source:  "ComprasNet",
			Portal:  "ComprasNet",
			UASG:    "200005",
			Company: "MINISTÉRIO DA JUSTIÇA",
			Number:  "32/2024",
			Date:    "18/03/2024",
			Status:  StatusClosed,
			Message: "O pregão foi encerrado",
			Value:   decimal.NewFromInt(124000),
		},
	}
}

func exampleAlerts(now time.Time) []Alert {
	return []Alert{
		{
			ID:        "alert-1",
			Title:     "URGENTE",
			Content:   "SUSPENSÃO DE LICITAÇÃO",
			Type:      AlertUrgent,
			CreatedAt: now,
		},
		{
			ID:        "alert-2",
			Title:     "Novo Edital",
			Content:   "Novo edital publicado - UASG 160100",
			Type:      AlertNormal,
			CreatedAt: now,
		},
	}
}
