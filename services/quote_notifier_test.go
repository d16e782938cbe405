package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrierdesk/models"
	"carrierdesk/pricing"
)

func sampleCategories() []models.Category {
	return []models.Category{
		{Name: "Dedicated Fiber Internet", Type: "Fiber", MinimumMarkup: 15},
		{Name: "Coax Broadband", Type: "Cable", MinimumMarkup: 10},
	}
}

func TestBuildCarrierRowsMatchesInteractivePricing(t *testing.T) {
	categories := sampleCategories()
	quotes := []models.CarrierQuote{
		{Carrier: "Spectrum", Type: "Cable", Speed: "600M x 35M", Price: 120, Term: "36 months", InstallFee: true, InstallFeeAmount: 360},
		{Carrier: "AT&T", Type: "Fiber", Speed: "500M x 500M", Price: 450, Term: "3 years", StaticIP: true, StaticIPFeeAmount: 25},
		{Carrier: "Lumen", Type: "Fiber", Speed: "1G x 1G", Price: 0, Term: ""},
	}

	rows := BuildCarrierRows(quotes, false, categories)
	require.Len(t, rows, len(quotes))

	// The email table and the interactive listing share one resolver; the
	// numbers must be identical for the same viewer and categories.
	for i, cq := range quotes {
		res := pricing.Resolve(cq, false, categories)
		assert.Equal(t, res.DisplayPrice, rows[i].Price, "row %d diverged from interactive pricing", i)
	}
}

func TestBuildCarrierRowsPriceLabels(t *testing.T) {
	quotes := []models.CarrierQuote{
		{Carrier: "AT&T", Type: "Fiber", Price: 450, Term: "36 months"},
		{Carrier: "Lumen", Type: "Fiber", Price: 0},
		{Carrier: "Spectrum", Type: "Cable", Price: 99, NoService: true},
	}

	rows := BuildCarrierRows(quotes, true, nil)
	assert.Equal(t, "$450.00/mo", rows[0].PriceLabel)
	assert.Equal(t, "Pending", rows[1].PriceLabel)
	assert.Equal(t, "No Service", rows[2].PriceLabel)
}

func TestBuildCarrierRowsSurveyLabel(t *testing.T) {
	quotes := []models.CarrierQuote{
		{Carrier: "AT&T", Price: 450, SiteSurveyNeeded: true, Notes: "foo | Site Survey: YELLOW extra"},
		{Carrier: "Lumen", Price: 200, SiteSurveyNeeded: true},
		{Carrier: "Spectrum", Price: 99},
	}

	rows := BuildCarrierRows(quotes, true, nil)
	assert.Equal(t, "Possible Construction", rows[0].SurveyLabel)
	assert.Equal(t, "Construction needed", rows[1].SurveyLabel)
	assert.Equal(t, "", rows[2].SurveyLabel)
}

func TestRenderCarrierTable(t *testing.T) {
	rows := []CarrierRow{
		{Carrier: "AT&T", Type: "Fiber", Speed: "500M x 500M", Term: "36 months", PriceLabel: "$517.50/mo", SurveyLabel: "No Construction"},
	}

	table := RenderCarrierTable(rows)
	assert.Contains(t, table, "<th>Carrier</th>")
	assert.Contains(t, table, "<td>AT&amp;T</td>")
	assert.Contains(t, table, "<td>$517.50/mo</td>")
	assert.Contains(t, table, "<td>No Construction</td>")
}

func TestProcessTemplate(t *testing.T) {
	data := models.EmailData{
		AgentName:    "Dana Reyes",
		ClientName:   "Hill Country Medical Group",
		QuoteID:      "42",
		CarrierTable: "<table></table>",
	}

	body := ProcessTemplate("Hi {{agent_name}}, pricing for {{client_name}} (quote #{{quote_id}}) is ready:\n{{carrier_table}}", data)
	assert.Equal(t, "Hi Dana Reyes, pricing for Hill Country Medical Group (quote #42) is ready:\n<table></table>", body)
}

func TestConvertHTMLToText(t *testing.T) {
	text := convertHTMLToText("<p>Hello</p><table><tr><td>AT&amp;T</td><td>$450.00/mo</td></tr></table>")
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "AT&T | ")
	assert.Contains(t, text, "$450.00/mo")
}
