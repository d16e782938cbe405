package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"carrierdesk/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// ==================== CIRCUIT CATEGORY CRUD OPERATIONS ====================

// CreateCategory creates a new circuit category
// @Summary Create category
// @Description Create a new circuit category with its markup policy
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body models.Category true "Category creation request"
// @Success 201 {object} models.CategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/categories [post]
func CreateCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage categories"})
			return
		}

		var category models.Category
		if err := c.ShouldBindJSON(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if category.MinimumMarkup < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minimum_markup cannot be negative"})
			return
		}

		var existingID int
		err := db.QueryRow("SELECT id FROM categories WHERE name = $1", category.Name).Scan(&existingID)
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Category with this name already exists"})
			return
		} else if err != sql.ErrNoRows {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		var id int
		err = db.QueryRow(
			"INSERT INTO categories (name, type, minimum_markup, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
			category.Name, category.Type, category.MinimumMarkup, time.Now(), time.Now(),
		).Scan(&id)

		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "Category with this name already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
			return
		}

		category.ID = uint(id)

		c.JSON(http.StatusCreated, models.CategoryResponse{
			Success: true,
			Message: "Category created successfully",
			Data:    &category,
		})
	}
}

// GetCategories lists every circuit category
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} models.CategoryListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/categories [get]
func GetCategories(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSessionUser(c, db); !ok {
			return
		}

		rows, err := db.Query(`SELECT id, name, COALESCE(type, ''), COALESCE(minimum_markup, 0), created_at, updated_at FROM categories ORDER BY id`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		defer rows.Close()

		var categories []models.Category
		for rows.Next() {
			var cat models.Category
			if err := rows.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.MinimumMarkup, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan category"})
				return
			}
			categories = append(categories, cat)
		}

		c.JSON(http.StatusOK, models.CategoryListResponse{
			Success: true,
			Message: "Categories fetched successfully",
			Data:    categories,
		})
	}
}

// UpdateCategory updates a circuit category
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body models.Category true "Category update request"
// @Success 200 {object} models.CategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/categories/{id} [put]
func UpdateCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage categories"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}

		var category models.Category
		if err := c.ShouldBindJSON(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if category.MinimumMarkup < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minimum_markup cannot be negative"})
			return
		}

		result, err := db.Exec(
			"UPDATE categories SET name = $1, type = $2, minimum_markup = $3, updated_at = $4 WHERE id = $5",
			category.Name, category.Type, category.MinimumMarkup, time.Now(), id,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}

		category.ID = uint(id)

		c.JSON(http.StatusOK, models.CategoryResponse{
			Success: true,
			Message: "Category updated successfully",
			Data:    &category,
		})
	}
}

// DeleteCategory removes a circuit category
// @Summary Delete category
// @Tags Categories
// @Param id path int true "Category ID"
// @Success 200 {object} models.CategoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/categories/{id} [delete]
func DeleteCategory(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := RequireSessionUser(c, db)
		if !ok {
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can manage categories"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}

		// Carrier quotes keep their type string; deleting a category only
		// removes the markup policy.
		var inUse int
		if err := db.QueryRow(`
			SELECT COUNT(*) FROM carrier_quotes cq
			JOIN categories cat ON LOWER(cat.type) = LOWER(cq.type)
			WHERE cat.id = $1`, id).Scan(&inUse); err == nil && inUse > 0 {
			log.Printf("Deleting category %d still referenced by %d carrier quotes", id, inUse)
		}

		result, err := db.Exec("DELETE FROM categories WHERE id = $1", id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}

		c.JSON(http.StatusOK, models.CategoryResponse{
			Success: true,
			Message: "Category deleted successfully",
		})
	}
}
