// Package pricing computes the viewer-facing monthly price for a carrier
// quote. It is the single source of truth for add-on aggregation and markup:
// the interactive priced listing and the quote-completion email both call
// Resolve with the same inputs and must stay numerically identical.
package pricing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"carrierdesk/models"
)

// DefaultTermMonths is used when the contract term cannot be parsed,
// including month-to-month and empty terms.
const DefaultTermMonths = 36

var (
	monthPattern = regexp.MustCompile(`(?i)(\d+)\s*month`)
	yearPattern  = regexp.MustCompile(`(?i)(\d+)\s*year`)
)

// Result is the full output of resolving one carrier quote for one viewer.
type Result struct {
	// DisplayPrice is the monthly price to show, add-ons included.
	DisplayPrice float64
	// BasePriceWithoutAddOns is the same markup logic applied to the bare
	// monthly cost, used for the "before extras" reference figure.
	BasePriceWithoutAddOns float64
	// TickedOptions are the human-readable labels for every active flag.
	TickedOptions []string
}

// TermMonths parses a free-text contract term into months. "<n> months" and
// "<n> years" are recognized; anything else falls back to DefaultTermMonths.
func TermMonths(term string) int {
	if m := monthPattern.FindStringSubmatch(term); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if m := yearPattern.FindStringSubmatch(term); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n * 12
		}
	}
	return DefaultTermMonths
}

// Resolve computes the displayable monthly price for a carrier quote.
//
// Admins always see the raw cost. A pending (zero) price or a no-service
// quote is never marked up either, since the number is not meaningful yet.
// Everyone else gets the category's minimum markup applied on top of the
// base cost plus add-ons, rounded to cents.
//
// The function is pure and total: malformed input degrades to zero-biased
// arithmetic, never an error.
func Resolve(q models.CarrierQuote, viewerIsAdmin bool, categories []models.Category) Result {
	termMonths := TermMonths(q.Term)

	var addOnTotal float64
	var ticked []string

	if q.InstallFee {
		// One-time install cost amortized over the parsed term, not the
		// default, whenever the term parses.
		addOnTotal += q.InstallFeeAmount / float64(termMonths)
		ticked = append(ticked, fmt.Sprintf("Install Fee ($%s)", formatAmount(q.InstallFeeAmount)))
	}
	if q.StaticIP {
		addOnTotal += q.StaticIPFeeAmount
		ticked = append(ticked, fmt.Sprintf("1 Static IP (/30) ($%s)", formatAmount(q.StaticIPFeeAmount)))
	}
	if q.StaticIP5 {
		addOnTotal += q.StaticIP5FeeAmount
		ticked = append(ticked, fmt.Sprintf("5 Static IPs (/29) ($%s)", formatAmount(q.StaticIP5FeeAmount)))
	}
	if q.OtherCosts > 0 {
		addOnTotal += q.OtherCosts
		ticked = append(ticked, fmt.Sprintf("Other MRC Cost ($%s)", formatAmount(q.OtherCosts)))
	}
	if q.SiteSurveyNeeded {
		ticked = append(ticked, fmt.Sprintf("Site Survey (%s)", strings.ToUpper(SurveyColor(q))))
	}
	if q.NoService {
		ticked = append(ticked, "No Service")
	}

	basePriceWithAddOns := q.Price + addOnTotal

	result := Result{
		DisplayPrice:           basePriceWithAddOns,
		BasePriceWithoutAddOns: q.Price,
		TickedOptions:          ticked,
	}

	if viewerIsAdmin || q.Price <= 0 || q.NoService {
		return result
	}

	result.DisplayPrice = applyMarkup(basePriceWithAddOns, q.Type, categories)
	result.BasePriceWithoutAddOns = applyMarkup(q.Price, q.Type, categories)
	return result
}

// applyMarkup marks up an amount by the matched category's minimum markup,
// rounded to cents. No match or a zero markup passes the amount through.
func applyMarkup(amount float64, circuitType string, categories []models.Category) float64 {
	cat, ok := MatchCategory(circuitType, categories)
	if !ok || cat.MinimumMarkup <= 0 {
		return amount
	}
	markupFraction := cat.MinimumMarkup / 100
	return math.Round(amount*(1+markupFraction)*100) / 100
}

// MatchCategory scans the category list in order and returns the first one
// whose type equals the circuit type case-insensitively, or whose name
// contains it case-insensitively. Within a single category the exact-type
// predicate wins over the name-substring predicate; across categories, list
// order wins. An empty circuit type matches nothing.
func MatchCategory(circuitType string, categories []models.Category) (models.Category, bool) {
	t := strings.TrimSpace(circuitType)
	if t == "" {
		return models.Category{}, false
	}
	lower := strings.ToLower(t)
	for _, cat := range categories {
		if strings.EqualFold(strings.TrimSpace(cat.Type), t) {
			return cat, true
		}
		if strings.Contains(strings.ToLower(cat.Name), lower) {
			return cat, true
		}
	}
	return models.Category{}, false
}

// SurveyColor returns the construction-risk color for a quote. The
// site_survey_priority column wins when set; legacy rows encode the color
// inside notes as "Site Survey: <color>". Anything unrecognized is red.
func SurveyColor(q models.CarrierQuote) string {
	switch color := strings.ToLower(strings.TrimSpace(q.SiteSurveyPriority)); color {
	case "red", "yellow", "orange", "green":
		return color
	}
	return surveyColorFromNotes(q.Notes)
}

func surveyColorFromNotes(notes string) string {
	const marker = "Site Survey:"
	idx := strings.Index(notes, marker)
	if idx < 0 {
		return "red"
	}
	fields := strings.Fields(strings.ToLower(notes[idx+len(marker):]))
	if len(fields) == 0 {
		return "red"
	}
	switch fields[0] {
	case "red", "yellow", "orange", "green":
		return fields[0]
	}
	return "red"
}

// ConstructionRisk maps a survey color to the label used in outbound
// completion summaries. It never feeds into the price.
func ConstructionRisk(color string) string {
	switch color {
	case "green":
		return "No Construction"
	case "yellow":
		return "Possible Construction"
	case "orange":
		return "Construction likely"
	default:
		return "Construction needed"
	}
}

// formatAmount renders a fee amount without trailing zeros: 500 not 500.00,
// 25.5 not 25.50.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
