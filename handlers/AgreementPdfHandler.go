package handlers

import (
	"bytes"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"carrierdesk/pricing"
	"carrierdesk/repository"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GenerateAgreementPDF godoc
// @Summary      Generate service agreement PDF
// @Tags         agreements
// @Param        id   path  int  true  "Quote ID"
// @Param        carrier_quote_id  query  int  true  "Accepted carrier quote ID"
// @Success      200  "PDF file"
// @Failure      400  {object}  object
// @Failure      404  {object}  object
// @Router       /api/quotes/{id}/agreement [get]
func GenerateAgreementPDF(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		var cqID int
		if _, err := fmt.Sscanf(c.Query("carrier_quote_id"), "%d", &cqID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing carrier_quote_id"})
			return
		}

		cq, err := repository.GetCarrierQuote(db, cqID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if cq.QuoteID != quote.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Carrier quote does not belong to this quote"})
			return
		}

		client, err := repository.GetClient(db, quote.ClientID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		// The agreement always carries the client-facing price.
		categories, err := repository.ListCategories(db)
		if err != nil {
			log.Printf("Category fetch failed for quote %d agreement, using unmarked price: %v", quote.ID, err)
			categories = nil
		}
		res := pricing.Resolve(*cq, false, categories)

		titleCaser := cases.Title(language.Und)
		reference := repository.GenerateQuoteReference(quote.ID)

		// --- Generate PDF ---
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)
		pdf.SetFont("Arial", "", 10)

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(150, 10, "SERVICE AGREEMENT")
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(40, 10, reference)
		pdf.Ln(12)

		// --- Client & Location ---
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(95, 8, "Client")
		pdf.Cell(95, 8, "Service Location")
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(90, 6, fmt.Sprintf(
			"%s\n%s\n%s\n%s",
			client.CompanyName, client.ContactPerson, client.ContactEmail, client.ContactPhone,
		), "", "", false)
		pdf.SetXY(110, 38)
		pdf.MultiCell(90, 6, fmt.Sprintf(
			"%s\n%s",
			quote.LocationName, repository.FullLocation(quote),
		), "", "", false)
		pdf.Ln(10)

		// --- Service Table ---
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(45, 8, "Carrier", "1", 0, "L", true, 0, "")
		pdf.CellFormat(35, 8, "Type", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 8, "Speed", "1", 0, "C", true, 0, "")
		pdf.CellFormat(30, 8, "Term", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 8, "Monthly Price", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(45, 8, cq.Carrier, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, titleCaser.String(cq.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, cq.Speed, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, cq.Term, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("$%.2f", res.DisplayPrice), "1", 1, "R", false, 0, "")

		// --- Included Options ---
		if len(res.TickedOptions) > 0 {
			pdf.Ln(5)
			pdf.SetFont("Arial", "B", 11)
			pdf.Cell(190, 8, "Included in Monthly Price:")
			pdf.Ln(7)
			pdf.SetFont("Arial", "", 10)
			for _, opt := range res.TickedOptions {
				pdf.Cell(190, 6, "- "+opt)
				pdf.Ln(6)
			}
		}

		// --- Terms ---
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 8, "Terms:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, fmt.Sprintf(
			"The monthly price above is fixed for the initial %d month term beginning on the circuit "+
				"installation date. Installation lead times are set by the carrier and are not guaranteed. "+
				"This agreement is valid for 30 days from the date of issue.",
			pricing.TermMonths(cq.Term)), "", "L", false)

		// --- Verification QR ---
		qrPayload := fmt.Sprintf("%s|quote:%d|carrier_quote:%d", reference, quote.ID, cq.ID)
		if png, err := qrcode.Encode(qrPayload, qrcode.Medium, 256); err == nil {
			opts := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader("agreement_qr", opts, bytes.NewReader(png))
			pdf.ImageOptions("agreement_qr", 160, pdf.GetY()+5, 35, 35, false, opts, 0, "")
		}

		// --- Signatures ---
		pdf.SetY(-60)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(95, 6, "Client Signature:")
		pdf.Cell(95, 6, "Authorized Signature:")
		pdf.Ln(14)
		pdf.Cell(95, 6, "_________________________")
		pdf.Cell(95, 6, "_________________________")
		pdf.Ln(8)
		pdf.Cell(95, 6, "Date: ____________")
		pdf.Cell(95, 6, "Date: ____________")

		// --- Footer ---
		pdf.SetY(-20)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(190, 6, "Generated on: "+time.Now().Format("2006-01-02 15:04:05"))

		// --- Output PDF ---
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=agreement_%s.pdf", reference))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
			return
		}
	}
}
