package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"strconv"

	"carrierdesk/repository"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// GenerateQuoteQRCodeJPEG godoc
// @Summary      Generate quote QR code as JPEG
// @Tags         qr
// @Param        id   path      int  true  "Quote ID"
// @Success      200  {file}    file  "JPEG image"
// @Failure      400  {object}  object
// @Failure      404  {object}  object
// @Router       /api/quotes/{id}/qr [get]
func GenerateQuoteQRCodeJPEG(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		client, err := repository.GetClient(db, quote.ClientID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		// A quote stays scannable while it is open or complete.
		isValid := quote.Status == "open" || quote.Status == "complete"

		qrData := struct {
			ID      int    `json:"id"`
			Status  string `json:"status"`
			IsValid bool   `json:"is_valid"`
		}{
			ID:      quote.ID,
			Status:  quote.Status,
			IsValid: isValid,
		}

		jsonData, err := json.Marshal(qrData)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal quote data"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		expiresStr := "N/A"
		if !quote.ExpiresAt.IsZero() {
			expiresStr = quote.ExpiresAt.Format("2006-01-02")
		}

		addLabelBold(combinedImg, xPos, startY, "Quote ID:")
		addLabel(combinedImg, xPos+120, startY, strconv.Itoa(quote.ID))

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Client:")
		clientDisplay := client.CompanyName
		if len(clientDisplay) > 30 {
			clientDisplay = clientDisplay[:27] + "..."
		}
		addLabel(combinedImg, xPos+120, startY+lineHeight, clientDisplay)

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Location:")
		locationDisplay := repository.FullLocation(quote)
		if len(locationDisplay) > 30 {
			locationDisplay = locationDisplay[:27] + "..."
		}
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, locationDisplay)

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Expires:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, expiresStr)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
