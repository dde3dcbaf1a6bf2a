// Package report agrega os pregões monitorados para o painel e a página de relatórios.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestaozabele/painelpregao/internal/monitor"
)

const dateLayout = "02/01/2006"

var monthLabels = [...]string{"JAN", "FEV", "MAR", "ABR", "MAI", "JUN", "JUL", "AGO", "SET", "OUT", "NOV", "DEZ"}

// Slice é uma fatia de um gráfico de pizza ou de barras.
type Slice struct {
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Percent decimal.Decimal `json:"percent"`
	Value   decimal.Decimal `json:"value"`
}

// Month conta pregões por mês de abertura.
type Month struct {
	Label string `json:"label"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Count int    `json:"count"`
}

// Summary reúne os números exibidos no painel.
type Summary struct {
	Total          int             `json:"total"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	ByStatus       []Slice         `json:"byStatus"`
	ByPortal       []Slice         `json:"byPortal"`
	ByOrganization []Slice         `json:"byOrganization"`
	Monthly        []Month         `json:"monthly"`
	Undated        int             `json:"undated"`
}

type bucket struct {
	count int
	value decimal.Decimal
}

// Build calcula o resumo. Itens com data fora de dd/mm/aaaa entram em Undated.
func Build(items []monitor.Item) Summary {
	s := Summary{
		Total:      len(items),
		TotalValue: decimal.Zero,
	}

	status := map[string]*bucket{}
	portal := map[string]*bucket{}
	org := map[string]*bucket{}
	months := map[[2]int]int{}

	for _, it := range items {
		s.TotalValue = s.TotalValue.Add(it.Value)
		add(status, it.Status.Label(), it.Value)
		add(portal, orOther(it.Portal), it.Value)
		add(org, orOther(it.Company), it.Value)

		d, err := time.Parse(dateLayout, strings.TrimSpace(it.Date))
		if err != nil {
			s.Undated++
			continue
		}
		months[[2]int{d.Year(), int(d.Month())}]++
	}

	s.ByStatus = toSlices(status, s.Total)
	s.ByPortal = toSlices(portal, s.Total)
	s.ByOrganization = toSlices(org, s.Total)
	s.Monthly = monthly(months)
	return s
}

func orOther(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Outros"
	}
	return name
}

func add(m map[string]*bucket, key string, value decimal.Decimal) {
	b, ok := m[key]
	if !ok {
		b = &bucket{value: decimal.Zero}
		m[key] = b
	}
	b.count++
	b.value = b.value.Add(value)
}

// toSlices ordena por quantidade decrescente e depois por nome.
func toSlices(m map[string]*bucket, total int) []Slice {
	out := make([]Slice, 0, len(m))
	for name, b := range m {
		out = append(out, Slice{
			Name:    name,
			Count:   b.count,
			Percent: percent(b.count, total),
			Value:   b.value,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func percent(count, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

func monthly(counts map[[2]int]int) []Month {
	out := make([]Month, 0, len(counts))
	for k, n := range counts {
		out = append(out, Month{
			Label: MonthLabel(k[0], k[1]),
			Year:  k[0],
			Month: k[1],
			Count: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// MonthLabel formata como MAR/2024.
func MonthLabel(year, month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthLabels[month-1] + "/" + strconv.Itoa(year)
}
