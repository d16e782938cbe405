package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"carrierdesk/models"
)

func TestTermMonths(t *testing.T) {
	tests := []struct {
		name string
		term string
		want int
	}{
		{name: "plain months", term: "12 months", want: 12},
		{name: "singular month", term: "1 month", want: 1},
		{name: "no space", term: "24months", want: 24},
		{name: "years", term: "3 years", want: 36},
		{name: "singular year", term: "1 year", want: 12},
		{name: "month to month", term: "Month to Month", want: 36},
		{name: "empty", term: "", want: 36},
		{name: "garbage", term: "whenever works", want: 36},
		{name: "zero months falls back", term: "0 months", want: 36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TermMonths(tt.term))
		})
	}
}

func TestResolveAddOnAggregation(t *testing.T) {
	q := models.CarrierQuote{
		Carrier:           "Spectrum",
		Type:              "Fiber",
		Price:             100,
		Term:              "36 months",
		InstallFee:        true,
		InstallFeeAmount:  360,
		StaticIP:          true,
		StaticIPFeeAmount: 10,
	}

	// 360/36 amortized + 10 static IP = 20 in add-ons.
	res := Resolve(q, true, nil)
	assert.Equal(t, 120.0, res.DisplayPrice)
	assert.Equal(t, 100.0, res.BasePriceWithoutAddOns)
	assert.Equal(t, []string{"Install Fee ($360)", "1 Static IP (/30) ($10)"}, res.TickedOptions)
}

func TestResolveInstallFeeAmortizesOverParsedTerm(t *testing.T) {
	q := models.CarrierQuote{
		Price:            200,
		Term:             "2 years",
		InstallFee:       true,
		InstallFeeAmount: 240,
	}

	// 240 over 24 months, not the 36-month default.
	res := Resolve(q, true, nil)
	assert.Equal(t, 210.0, res.DisplayPrice)
}

func TestResolveAdminBypass(t *testing.T) {
	categories := []models.Category{{Name: "Dedicated Fiber", Type: "Fiber", MinimumMarkup: 25}}
	q := models.CarrierQuote{Type: "Fiber", Price: 100, OtherCosts: 40}

	res := Resolve(q, true, categories)
	assert.Equal(t, 140.0, res.DisplayPrice)
	assert.Equal(t, 100.0, res.BasePriceWithoutAddOns)
	assert.Contains(t, res.TickedOptions, "Other MRC Cost ($40)")
}

func TestResolvePendingBypass(t *testing.T) {
	categories := []models.Category{{Name: "Dedicated Fiber", Type: "Fiber", MinimumMarkup: 25}}
	q := models.CarrierQuote{Type: "Fiber", Price: 0, StaticIP: true, StaticIPFeeAmount: 25}

	res := Resolve(q, false, categories)
	assert.Equal(t, 25.0, res.DisplayPrice)
	assert.Equal(t, 0.0, res.BasePriceWithoutAddOns)
}

func TestResolveNoServiceBypass(t *testing.T) {
	categories := []models.Category{{Name: "Cable Internet", Type: "Cable", MinimumMarkup: 15}}
	q := models.CarrierQuote{Type: "Cable", Price: 80, NoService: true}

	res := Resolve(q, false, categories)
	assert.Equal(t, 80.0, res.DisplayPrice)
	assert.Contains(t, res.TickedOptions, "No Service")
}

func TestResolveMarkupApplication(t *testing.T) {
	categories := []models.Category{{Name: "Dedicated Fiber", Type: "Fiber", MinimumMarkup: 15}}
	q := models.CarrierQuote{Type: "Fiber", Price: 100}

	res := Resolve(q, false, categories)
	assert.Equal(t, 115.0, res.DisplayPrice)
	assert.Equal(t, 115.0, res.BasePriceWithoutAddOns)
}

func TestResolveMarkupRoundsToCents(t *testing.T) {
	categories := []models.Category{{Name: "Cable", Type: "Cable", MinimumMarkup: 7}}
	q := models.CarrierQuote{Type: "Cable", Price: 99.99}

	// 99.99 * 1.07 = 106.9893, rounded to 106.99.
	res := Resolve(q, false, categories)
	assert.Equal(t, 106.99, res.DisplayPrice)
}

func TestResolveMarkupCoversAddOns(t *testing.T) {
	categories := []models.Category{{Name: "Dedicated Fiber", Type: "Fiber", MinimumMarkup: 10}}
	q := models.CarrierQuote{
		Type:              "Fiber",
		Price:             100,
		Term:              "36 months",
		StaticIP:          true,
		StaticIPFeeAmount: 20,
	}

	res := Resolve(q, false, categories)
	assert.Equal(t, 132.0, res.DisplayPrice)
	assert.Equal(t, 110.0, res.BasePriceWithoutAddOns)
}

func TestResolveNoMatchPassthrough(t *testing.T) {
	categories := []models.Category{{Name: "Cable Internet", Type: "Cable", MinimumMarkup: 50}}
	q := models.CarrierQuote{Type: "Fixed Wireless", Price: 75}

	res := Resolve(q, false, categories)
	assert.Equal(t, 75.0, res.DisplayPrice)
}

func TestResolveZeroMarkupPassthrough(t *testing.T) {
	categories := []models.Category{{Name: "Broadband", Type: "Cable", MinimumMarkup: 0}}
	q := models.CarrierQuote{Type: "Cable", Price: 75}

	res := Resolve(q, false, categories)
	assert.Equal(t, 75.0, res.DisplayPrice)
}

func TestResolveIdempotent(t *testing.T) {
	categories := []models.Category{{Name: "Dedicated Fiber", Type: "Fiber", MinimumMarkup: 15}}
	q := models.CarrierQuote{
		Type:             "Fiber",
		Price:            123.45,
		Term:             "5 years",
		InstallFee:       true,
		InstallFeeAmount: 1500,
		OtherCosts:       12.5,
	}

	first := Resolve(q, false, categories)
	second := Resolve(q, false, categories)
	assert.Equal(t, first, second)
}

func TestMatchCategory(t *testing.T) {
	categories := []models.Category{
		{Name: "Coax Broadband", Type: "Cable", MinimumMarkup: 10},
		{Name: "Dedicated Fiber Internet", Type: "", MinimumMarkup: 20},
		{Name: "Everything Fiber", Type: "Fiber", MinimumMarkup: 30},
	}

	t.Run("exact type match", func(t *testing.T) {
		cat, ok := MatchCategory("cable", categories)
		assert.True(t, ok)
		assert.Equal(t, 10.0, cat.MinimumMarkup)
	})

	t.Run("substring in name, list order wins", func(t *testing.T) {
		// "Fiber" appears in both fiber categories; the earlier one wins
		// even though the later one has an exact type match.
		cat, ok := MatchCategory("Fiber", categories)
		assert.True(t, ok)
		assert.Equal(t, 20.0, cat.MinimumMarkup)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := MatchCategory("Satellite", categories)
		assert.False(t, ok)
	})

	t.Run("empty type matches nothing", func(t *testing.T) {
		_, ok := MatchCategory("", categories)
		assert.False(t, ok)
	})

	t.Run("empty type does not match empty category type", func(t *testing.T) {
		_, ok := MatchCategory("   ", categories)
		assert.False(t, ok)
	})
}

func TestSurveyColor(t *testing.T) {
	t.Run("from notes marker", func(t *testing.T) {
		q := models.CarrierQuote{Notes: "foo | Site Survey: YELLOW extra"}
		assert.Equal(t, "yellow", SurveyColor(q))
	})

	t.Run("priority column wins over notes", func(t *testing.T) {
		q := models.CarrierQuote{SiteSurveyPriority: "green", Notes: "Site Survey: red"}
		assert.Equal(t, "green", SurveyColor(q))
	})

	t.Run("missing marker defaults red", func(t *testing.T) {
		q := models.CarrierQuote{Notes: "no marker here", SiteSurveyNeeded: true}
		assert.Equal(t, "red", SurveyColor(q))
	})

	t.Run("unrecognized color defaults red", func(t *testing.T) {
		q := models.CarrierQuote{Notes: "Site Survey: purple"}
		assert.Equal(t, "red", SurveyColor(q))
	})

	t.Run("marker at end defaults red", func(t *testing.T) {
		q := models.CarrierQuote{Notes: "Site Survey:"}
		assert.Equal(t, "red", SurveyColor(q))
	})
}

func TestConstructionRisk(t *testing.T) {
	assert.Equal(t, "Construction needed", ConstructionRisk("red"))
	assert.Equal(t, "Possible Construction", ConstructionRisk("yellow"))
	assert.Equal(t, "Construction likely", ConstructionRisk("orange"))
	assert.Equal(t, "No Construction", ConstructionRisk("green"))
	assert.Equal(t, "Construction needed", ConstructionRisk("mauve"))
}

func TestResolveSiteSurveyLabel(t *testing.T) {
	q := models.CarrierQuote{
		Price:            100,
		SiteSurveyNeeded: true,
		Notes:            "Site Survey: orange",
	}

	res := Resolve(q, true, nil)
	assert.Contains(t, res.TickedOptions, "Site Survey (ORANGE)")
}

func TestResolveFeeAmountFormatting(t *testing.T) {
	q := models.CarrierQuote{
		Price:             100,
		StaticIP:          true,
		StaticIPFeeAmount: 25.5,
	}

	res := Resolve(q, true, nil)
	assert.Contains(t, res.TickedOptions, "1 Static IP (/30) ($25.5)")
}
