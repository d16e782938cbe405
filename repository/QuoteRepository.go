package repository

import (
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"carrierdesk/models"
)

// GenerateQuoteReference builds a human-facing reference like "QT-AB10423"
// used in agreements and notification emails.
func GenerateQuoteReference(quoteID int) string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	prefix := string(letters[rng.Intn(len(letters))]) + string(letters[rng.Intn(len(letters))])

	return fmt.Sprintf("QT-%s%05d", prefix, quoteID)
}

const quoteColumns = `id, client_id, agent_id, location_name, address, city, state, zip_code,
       requested_speed, requested_term, status, expires_at, notes, created_by, created_at, updated_at`

func scanQuote(row *sql.Row) (*models.Quote, error) {
	var q models.Quote
	var expiresAt sql.NullTime
	var notes sql.NullString

	err := row.Scan(
		&q.ID, &q.ClientID, &q.AgentID, &q.LocationName, &q.Address, &q.City, &q.State, &q.ZipCode,
		&q.RequestedSpeed, &q.RequestedTerm, &q.Status, &expiresAt, &notes, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		q.ExpiresAt = expiresAt.Time
	}
	q.Notes = notes.String
	return &q, nil
}

// GetQuote fetches one quote row by id.
func GetQuote(db *sql.DB, quoteID int) (*models.Quote, error) {
	row := db.QueryRow(`SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, quoteID)
	quote, err := scanQuote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("quote %d not found", quoteID)
		}
		return nil, fmt.Errorf("failed to fetch quote %d: %v", quoteID, err)
	}
	return quote, nil
}

const carrierQuoteColumns = `id, quote_id, carrier, type, speed, price, term, notes, color,
       install_fee, install_fee_amount, static_ip, static_ip_fee_amount,
       static_ip_5, static_ip_5_fee_amount, other_costs, no_service,
       site_survey_needed, site_survey_priority, sort_order, created_at, updated_at`

func scanCarrierQuote(rows *sql.Rows) (models.CarrierQuote, error) {
	var cq models.CarrierQuote
	var notes, color, priority sql.NullString
	var price, installFee, staticIPFee, staticIP5Fee, otherCosts sql.NullFloat64

	err := rows.Scan(
		&cq.ID, &cq.QuoteID, &cq.Carrier, &cq.Type, &cq.Speed, &price, &cq.Term, &notes, &color,
		&cq.InstallFee, &installFee, &cq.StaticIP, &staticIPFee,
		&cq.StaticIP5, &staticIP5Fee, &otherCosts, &cq.NoService,
		&cq.SiteSurveyNeeded, &priority, &cq.SortOrder, &cq.CreatedAt, &cq.UpdatedAt,
	)
	if err != nil {
		return models.CarrierQuote{}, err
	}

	// Nullable numerics degrade to zero so pricing stays total.
	cq.Price = price.Float64
	cq.InstallFeeAmount = installFee.Float64
	cq.StaticIPFeeAmount = staticIPFee.Float64
	cq.StaticIP5FeeAmount = staticIP5Fee.Float64
	cq.OtherCosts = otherCosts.Float64
	cq.Notes = notes.String
	cq.Color = color.String
	cq.SiteSurveyPriority = priority.String
	if cq.SiteSurveyPriority == "" {
		cq.SiteSurveyPriority = "none"
	}
	return cq, nil
}

// ListCarrierQuotes returns a quote's carrier quotes in display order.
func ListCarrierQuotes(db *sql.DB, quoteID int) ([]models.CarrierQuote, error) {
	rows, err := db.Query(`SELECT `+carrierQuoteColumns+` FROM carrier_quotes WHERE quote_id = $1 ORDER BY sort_order, id`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list carrier quotes for quote %d: %v", quoteID, err)
	}
	defer rows.Close()

	var quotes []models.CarrierQuote
	for rows.Next() {
		cq, err := scanCarrierQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carrier quote: %v", err)
		}
		quotes = append(quotes, cq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quotes, nil
}

// GetCarrierQuote fetches one carrier quote row by id.
func GetCarrierQuote(db *sql.DB, id int) (*models.CarrierQuote, error) {
	rows, err := db.Query(`SELECT `+carrierQuoteColumns+` FROM carrier_quotes WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch carrier quote %d: %v", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("carrier quote %d not found", id)
	}
	cq, err := scanCarrierQuote(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan carrier quote: %v", err)
	}
	return &cq, nil
}

// ListCategories returns every circuit category with its markup policy, in
// insertion order. Callers treat a failed fetch as an empty list, which
// means no markup gets applied.
func ListCategories(db *sql.DB) ([]models.Category, error) {
	rows, err := db.Query(`SELECT id, name, COALESCE(type, ''), COALESCE(minimum_markup, 0), created_at, updated_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %v", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.MinimumMarkup, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %v", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// GetClient fetches one client row by id.
func GetClient(db *sql.DB, clientID int) (*models.Client, error) {
	var cl models.Client
	var notes sql.NullString
	err := db.QueryRow(`
		SELECT c.id, c.company_name, c.contact_person, c.contact_email, c.contact_phone,
		       c.address, c.city, c.state, c.zip_code, c.agent_id, c.notes, c.created_at, c.updated_at,
		       COALESCE(CONCAT(u.first_name, ' ', u.last_name), '')
		FROM clients c
		LEFT JOIN agents a ON a.id = c.agent_id
		LEFT JOIN users u ON u.id = a.user_id
		WHERE c.id = $1`, clientID).Scan(
		&cl.ID, &cl.CompanyName, &cl.ContactPerson, &cl.ContactEmail, &cl.ContactPhone,
		&cl.Address, &cl.City, &cl.State, &cl.ZipCode, &cl.AgentID, &notes, &cl.CreatedAt, &cl.UpdatedAt,
		&cl.AgentName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("client %d not found", clientID)
		}
		return nil, fmt.Errorf("failed to fetch client %d: %v", clientID, err)
	}
	cl.Notes = notes.String
	return &cl, nil
}

// GetAgent fetches one agent row with the joined user fields.
func GetAgent(db *sql.DB, agentID int) (*models.Agent, error) {
	var ag models.Agent
	err := db.QueryRow(`
		SELECT a.id, a.user_id, u.first_name, u.last_name, u.email, u.phone_no, u.company,
		       a.commission_rate, u.suspended, a.created_at, a.updated_at
		FROM agents a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`, agentID).Scan(
		&ag.ID, &ag.UserID, &ag.FirstName, &ag.LastName, &ag.Email, &ag.PhoneNo, &ag.Company,
		&ag.CommissionRate, &ag.Suspended, &ag.CreatedAt, &ag.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("agent %d not found", agentID)
		}
		return nil, fmt.Errorf("failed to fetch agent %d: %v", agentID, err)
	}
	return &ag, nil
}

// FullLocation renders a quote's address as a single display line.
func FullLocation(q *models.Quote) string {
	parts := []string{}
	for _, p := range []string{q.Address, q.City, q.State, q.ZipCode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
