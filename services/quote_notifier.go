package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"carrierdesk/models"
	"carrierdesk/pricing"
	"carrierdesk/repository"
)

// QuoteNotifier composes and dispatches the quote-completion notification:
// an email to the owning agent with the per-carrier priced comparison table,
// an in-app notification row and a device push.
type QuoteNotifier struct {
	db    *sql.DB
	email *EmailService
	fcm   *FCMService
}

// NewQuoteNotifier creates a quote notifier. The FCM service may be nil when
// push is disabled; email and in-app notifications still go out.
func NewQuoteNotifier(db *sql.DB, email *EmailService, fcm *FCMService) *QuoteNotifier {
	return &QuoteNotifier{db: db, email: email, fcm: fcm}
}

// BuildCarrierRows resolves every carrier quote for the given viewer. Prices
// come from the same pricing.Resolve the interactive listing uses, so the
// emailed numbers always match what the agent sees in the app.
func BuildCarrierRows(quotes []models.CarrierQuote, viewerIsAdmin bool, categories []models.Category) []CarrierRow {
	rows := make([]CarrierRow, 0, len(quotes))
	for _, cq := range quotes {
		res := pricing.Resolve(cq, viewerIsAdmin, categories)

		row := CarrierRow{
			Carrier: cq.Carrier,
			Type:    cq.Type,
			Speed:   cq.Speed,
			Term:    cq.Term,
			Price:   res.DisplayPrice,
		}
		switch {
		case cq.NoService:
			row.PriceLabel = "No Service"
		case cq.Price <= 0:
			row.PriceLabel = "Pending"
		default:
			row.PriceLabel = fmt.Sprintf("$%.2f/mo", res.DisplayPrice)
		}
		if cq.SiteSurveyNeeded {
			row.SurveyLabel = pricing.ConstructionRisk(pricing.SurveyColor(cq))
		}
		rows = append(rows, row)
	}
	return rows
}

// CarrierRow is one line of the completion-notification comparison table.
type CarrierRow struct {
	Carrier     string
	Type        string
	Speed       string
	Term        string
	Price       float64
	PriceLabel  string
	SurveyLabel string
}

// RenderCarrierTable renders carrier rows as the HTML table embedded in the
// completion email body.
func RenderCarrierTable(rows []CarrierRow) string {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0" style="border-collapse:collapse">`)
	b.WriteString("<tr><th>Carrier</th><th>Type</th><th>Speed</th><th>Monthly Price</th><th>Term</th><th>Construction Risk</th></tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range []string{row.Carrier, row.Type, row.Speed, row.PriceLabel, row.Term, row.SurveyLabel} {
			b.WriteString("<td>")
			b.WriteString(htmlEscape(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return replacer.Replace(s)
}

// SendQuoteComplete notifies the owning agent that pricing for a quote is
// done. The carrier table is resolved with viewerIsAdmin=false because the
// recipient is always the agent.
func (n *QuoteNotifier) SendQuoteComplete(ctx context.Context, quoteID int) error {
	quote, err := repository.GetQuote(n.db, quoteID)
	if err != nil {
		return err
	}

	client, err := repository.GetClient(n.db, quote.ClientID)
	if err != nil {
		return err
	}

	agent, err := repository.GetAgent(n.db, quote.AgentID)
	if err != nil {
		return err
	}

	carrierQuotes, err := repository.ListCarrierQuotes(n.db, quoteID)
	if err != nil {
		return err
	}

	// A failed category fetch falls back to an empty list, which resolves
	// with no markup applied.
	categories, err := repository.ListCategories(n.db)
	if err != nil {
		log.Printf("Category fetch failed for quote %d notification, sending unmarked prices: %v", quoteID, err)
		categories = nil
	}

	rows := BuildCarrierRows(carrierQuotes, false, categories)

	emailData := models.EmailData{
		ClientName:   client.CompanyName,
		AgentName:    agent.FirstName + " " + agent.LastName,
		Email:        agent.Email,
		QuoteID:      strconv.Itoa(quote.ID),
		Location:     repository.FullLocation(quote),
		CarrierTable: RenderCarrierTable(rows),
		PortalURL:    portalURL(),
		SupportEmail: supportEmail(),
	}

	if err := n.email.SendTemplatedEmail("quote_complete", emailData, nil); err != nil {
		return fmt.Errorf("failed to send quote completion email: %v", err)
	}

	message := fmt.Sprintf("Pricing for %s (%s) is complete", client.CompanyName, repository.FullLocation(quote))
	action := fmt.Sprintf("%s/quotes/%d", portalURL(), quote.ID)

	_, err = n.db.Exec(`
		INSERT INTO notifications (user_id, message, status, action, created_at, updated_at)
		VALUES ($1, $2, 'unread', $3, $4, $5)`,
		agent.UserID, message, action, time.Now(), time.Now())
	if err != nil {
		log.Printf("Failed to insert completion notification for quote %d: %v", quoteID, err)
	}

	if n.fcm != nil {
		if err := n.fcm.SendNotificationToUser(ctx, agent.UserID, "Quote pricing complete", message, map[string]string{"action": action}); err != nil {
			log.Printf("Failed to push completion notification for quote %d: %v", quoteID, err)
		}
	}

	return nil
}
