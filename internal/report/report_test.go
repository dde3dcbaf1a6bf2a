package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/painelpregao/internal/monitor"
)

func TestBuildSummary(t *testing.T) {
	items := []monitor.Item{
		{ID: "1", Portal: "ComprasNet", Company: "EXÉRCITO BRASILEIRO", Date: "15/03/2024", Status: monitor.StatusSuspended, Value: decimal.NewFromInt(185000)},
		{ID: "2", Portal: "ComprasNet", Company: "EXÉRCITO BRASILEIRO", Date: "20/03/2024", Status: monitor.StatusActive, Value: decimal.RequireFromString("267500.50")},
		{ID: "3", Portal: "BEC", Company: "MINISTÉRIO DA JUSTIÇA", Date: "02/01/2025", Status: monitor.StatusClosed, Value: decimal.NewFromInt(124000)},
		{ID: "4", Portal: "", Company: "TRIBUNAL REGIONAL ELEITORAL", Date: "sem data", Status: monitor.StatusActive, Value: decimal.Zero},
	}

	s := Build(items)

	assert.Equal(t, 4, s.Total)
	assert.True(t, s.TotalValue.Equal(decimal.RequireFromString("576500.50")), s.TotalValue.String())
	assert.Equal(t, 1, s.Undated)

	require.Len(t, s.ByPortal, 3)
	assert.Equal(t, "ComprasNet", s.ByPortal[0].Name)
	assert.Equal(t, 2, s.ByPortal[0].Count)
	assert.True(t, s.ByPortal[0].Percent.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "BEC", s.ByPortal[1].Name)
	assert.Equal(t, "Outros", s.ByPortal[2].Name)

	require.Len(t, s.ByStatus, 3)
	assert.Equal(t, "em andamento", s.ByStatus[0].Name)
	assert.Equal(t, 2, s.ByStatus[0].Count)

	require.Len(t, s.ByOrganization, 3)
	assert.Equal(t, "EXÉRCITO BRASILEIRO", s.ByOrganization[0].Name)
	assert.True(t, s.ByOrganization[0].Value.Equal(decimal.RequireFromString("452500.50")))

	require.Len(t, s.Monthly, 2)
	assert.Equal(t, Month{Label: "MAR/2024", Year: 2024, Month: 3, Count: 2}, s.Monthly[0])
	assert.Equal(t, "JAN/2025", s.Monthly[1].Label)
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil)
	assert.Equal(t, 0, s.Total)
	assert.True(t, s.TotalValue.IsZero())
	assert.Empty(t, s.ByPortal)
	assert.Empty(t, s.Monthly)
}

func TestPercentRounding(t *testing.T) {
	assert.Equal(t, "33.33", percent(1, 3).String())
	assert.Equal(t, "0", percent(0, 0).String())
}
