package handlers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"carrierdesk/pricing"
	"carrierdesk/repository"
	"carrierdesk/services"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var comparisonHeader = []string{"Carrier", "Type", "Speed", "Term", "Monthly Price", "Included", "Construction Risk"}

// comparisonRows resolves a quote's carrier quotes into export rows using the
// same per-viewer pricing as the interactive listing.
func comparisonRows(db *sql.DB, quoteID int, viewerIsAdmin bool) ([][]string, error) {
	carrierQuotes, err := repository.ListCarrierQuotes(db, quoteID)
	if err != nil {
		return nil, err
	}

	categories, err := repository.ListCategories(db)
	if err != nil {
		log.Printf("Category fetch failed for quote %d export, exporting unmarked prices: %v", quoteID, err)
		categories = nil
	}

	rows := services.BuildCarrierRows(carrierQuotes, viewerIsAdmin, categories)

	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		res := pricing.Resolve(carrierQuotes[i], viewerIsAdmin, categories)
		out = append(out, []string{
			row.Carrier,
			row.Type,
			row.Speed,
			row.Term,
			row.PriceLabel,
			strings.Join(res.TickedOptions, "; "),
			row.SurveyLabel,
		})
	}
	return out, nil
}

// ExportComparisonCSV godoc
// @Summary      Export carrier comparison as CSV
// @Tags         export
// @Produce      text/csv
// @Param        id  path  int  true  "Quote ID"
// @Success      200  {file}  file  "CSV file"
// @Failure      400  {object}  object
// @Router       /api/quotes/{id}/export/csv [get]
func ExportComparisonCSV(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}

		quote, ok := loadQuoteForUser(c, db, user)
		if !ok {
			return
		}

		rows, err := comparisonRows(db, quote.ID, user.IsAdmin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=quote_%d_comparison.csv", quote.ID))

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		if err := writer.Write(comparisonHeader); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV header"})
			return
		}
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing CSV row"})
				return
			}
		}
	}
}

// ExportComparisonXLSX godoc
// @Summary      Export carrier comparison as Excel
// @Tags         export
// @Param        id  path  int  true  "Quote ID"
// @Success      200  {file}  file  "Excel file"
// @Failure      400  {object}  object
// @Router       /api/quotes/{id}/export/xlsx [get]
func ExportComparisonXLSX(db *sql.DB) gin.HandlerFunc {
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

		rows, err := comparisonRows(db, quote.ID, user.IsAdmin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Error closing Excel file: %v", err)
			}
		}()

		sheetName := "Comparison"
		index, err := f.NewSheet(sheetName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating sheet"})
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		f.SetCellValue(sheetName, "A1", "Carrier Comparison")
		f.SetCellValue(sheetName, "A2", "Client")
		f.SetCellValue(sheetName, "B2", client.CompanyName)
		f.SetCellValue(sheetName, "A3", "Location")
		f.SetCellValue(sheetName, "B3", repository.FullLocation(quote))
		f.SetCellValue(sheetName, "A4", "Requested")
		f.SetCellValue(sheetName, "B4", fmt.Sprintf("%s for %s", quote.RequestedSpeed, quote.RequestedTerm))

		headerRow := 6
		for i, col := range comparisonHeader {
			cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating cell name"})
				return
			}
			f.SetCellValue(sheetName, cell, col)
		}

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{
				Bold:   true,
				Size:   12,
				Family: "Arial",
				Color:  "#FFFFFF",
			},
			Fill: excelize.Fill{
				Type:    "pattern",
				Color:   []string{"#4472C4"},
				Pattern: 1,
			},
			Alignment: &excelize.Alignment{
				Horizontal: "center",
				Vertical:   "center",
			},
			Border: []excelize.Border{
				{Type: "left", Color: "#000000", Style: 1},
				{Type: "top", Color: "#000000", Style: 1},
				{Type: "right", Color: "#000000", Style: 1},
				{Type: "bottom", Color: "#000000", Style: 1},
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating header style"})
			return
		}

		startCell, _ := excelize.CoordinatesToCellName(1, headerRow)
		endCell, _ := excelize.CoordinatesToCellName(len(comparisonHeader), headerRow)
		f.SetCellStyle(sheetName, startCell, endCell, headerStyle)

		for r, row := range rows {
			for i, value := range row {
				cell, err := excelize.CoordinatesToCellName(i+1, headerRow+1+r)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating cell name"})
					return
				}
				f.SetCellValue(sheetName, cell, value)
			}
		}

		for i := 1; i <= len(comparisonHeader); i++ {
			col, err := excelize.ColumnNumberToName(i)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating column name"})
				return
			}
			f.SetColWidth(sheetName, col, col, 22)
		}
		f.SetRowHeight(sheetName, headerRow, 22)

		safeName := strings.TrimSpace(client.CompanyName)
		for _, bad := range []string{" ", "/", "\\", ":", "*", "?", "\"", "<", ">", "|"} {
			safeName = strings.ReplaceAll(safeName, bad, "_")
		}
		filename := fmt.Sprintf("comparison_%s_%d.xlsx", safeName, quote.ID)
		escaped := url.PathEscape(filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, escaped))

		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing Excel file"})
			return
		}
	}
}
