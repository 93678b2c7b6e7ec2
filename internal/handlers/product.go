package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/farmstead/storefront/internal/events"
	"github.com/farmstead/storefront/internal/models"
	"github.com/farmstead/storefront/internal/search"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Indexer  *search.Indexer
}

type productRequest struct {
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description"`
	Price           float64 `json:"price" validate:"gte=0"`
	Stock           int     `json:"stock" validate:"gte=0"`
	ImageURL        string  `json:"imageURL"`
	LocalPickupOnly bool    `json:"localPickupOnly"`
	DisplayOrder    int     `json:"displayOrder"`
	Weight          float64 `json:"weight"`
	Length          float64 `json:"length"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicProducts, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p *models.Product) {
	if err := h.Indexer.IndexProduct(c.Request().Context(), p); err != nil {
		c.Logger().Errorf("search index error: %v", err)
	}
}

// ListActive returns the storefront catalog: non-archived products in display
// order.
func (h *ProductHandler) ListActive(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Where("is_archived = ?", false).
		Order("display_order ASC").
		Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch products")
	}
	return c.JSON(http.StatusOK, products)
}

// ListAll includes archived products, for the admin dashboard.
func (h *ProductHandler) ListAll(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Order("display_order ASC").Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch all products")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prod := models.Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		StockQty:        req.Stock,
		ImageURL:        req.ImageURL,
		LocalPickupOnly: req.LocalPickupOnly,
		DisplayOrder:    req.DisplayOrder,
		WeightOz:        req.Weight,
		LengthIn:        req.Length,
		WidthIn:         req.Width,
		HeightIn:        req.Height,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to add product")
	}

	h.index(c, &prod)
	h.publish(c, map[string]any{"type": "product_created", "productID": prod.ID, "name": prod.Name})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	prod.Name = req.Name
	prod.Description = req.Description
	prod.Price = req.Price
	prod.StockQty = req.Stock
	prod.ImageURL = req.ImageURL
	prod.LocalPickupOnly = req.LocalPickupOnly
	prod.DisplayOrder = req.DisplayOrder
	prod.WeightOz = req.Weight
	prod.LengthIn = req.Length
	prod.WidthIn = req.Width
	prod.HeightIn = req.Height

	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "update failed")
	}

	h.index(c, &prod)
	h.publish(c, map[string]any{"type": "product_updated", "productID": prod.ID, "name": prod.Name})

	return c.JSON(http.StatusOK, prod)
}

// ToggleArchive flips the archived flag. Archived products disappear from the
// storefront but stay referenced by order history.
func (h *ProductHandler) ToggleArchive(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		IsArchived bool `json:"isArchived"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res := h.DB.Model(&models.Product{}).Where("id = ?", id).Update("is_archived", req.IsArchived)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update archive status")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err == nil {
		h.index(c, &prod)
	}
	h.publish(c, map[string]any{"type": "product_archived", "productID": id, "archived": req.IsArchived})

	return c.JSON(http.StatusOK, echo.Map{"id": id, "isArchived": req.IsArchived})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete product")
	}

	if err := h.Indexer.DeleteProduct(c.Request().Context(), uint(id)); err != nil {
		c.Logger().Errorf("search delete error: %v", err)
	}
	h.publish(c, map[string]any{"type": "product_deleted", "productID": id})

	return c.NoContent(http.StatusNoContent)
}
