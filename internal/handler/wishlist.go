package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/service"
)

const maxPresenceIDs = 100

type WishlistHandler struct {
	wishlist *service.WishlistService
	presence *service.PresenceService
}

func NewWishlistHandler(wishlist *service.WishlistService, presence *service.PresenceService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, presence: presence}
}

func (h *WishlistHandler) List(c *gin.Context) {
	items, err := h.wishlist.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.WishlistItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toWishlistItemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// Toggle flips membership. Clients that render a heart icon send the state
// they show in "present"; others omit it and the server looks it up.
func (h *WishlistHandler) Toggle(c *gin.Context) {
	var req dto.ToggleWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	present := false
	if req.Present != nil {
		present = *req.Present
	} else {
		var err error
		if present, err = h.wishlist.Contains(ctx, userID, req.ProductID); err != nil {
			respondError(c, err)
			return
		}
	}

	inWishlist, err := h.wishlist.Toggle(ctx, userID, req.ProductID, present)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToggleWishlistResponse{ProductID: req.ProductID, InWishlist: inWishlist})
}

// Presence answers GET /presence?product_ids=a,b,c for product cards.
func (h *WishlistHandler) Presence(c *gin.Context) {
	raw := strings.Split(c.Query("product_ids"), ",")
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid product id " + s, Field: "product_ids"})
			return
		}
		ids = append(ids, id)
	}
	if len(ids) > maxPresenceIDs {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "too many product ids", Field: "product_ids"})
		return
	}

	presence, err := h.presence.Lookup(c.Request.Context(), middleware.GetUserID(c), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.PresenceResponse, 0, len(presence))
	for _, p := range presence {
		out = append(out, dto.PresenceResponse{ProductID: p.ProductID, InCart: p.InCart, InWishlist: p.InWishlist})
	}
	c.JSON(http.StatusOK, gin.H{"presence": out})
}
