package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DashboardResponse{
		Products:   stats.Products,
		Categories: stats.Categories,
		Customers:  stats.Customers,
		Orders:     stats.Orders,
		Revenue:    stats.Revenue,
	})
}

func (h *AdminHandler) ListCustomers(c *gin.Context) {
	var page dto.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	users, total, err := h.adminService.ListCustomers(c.Request.Context(), page.Limit, page.Offset())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.CustomerListResponse{
		Customers: make([]dto.UserResponse, 0, len(users)),
		Total:     total,
		Page:      page.Page,
		Limit:     page.Limit,
	}
	for i := range users {
		resp.Customers = append(resp.Customers, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.adminService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CustomerDetailResponse{
		Customer:  toUserResponse(detail.Customer),
		Orders:    toOrderResponses(detail.Orders),
		Addresses: toAddressResponses(detail.Addresses),
	})
}

func (h *AdminHandler) DeleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	orders, total, err := h.adminService.ListOrders(c.Request.Context(), repository.OrderFilter{
		Status: model.OrderStatus(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{
		Orders: toOrderResponses(orders),
		Total:  total,
		Page:   req.Page,
		Limit:  req.Limit,
	})
}

func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.adminService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.adminService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.adminService.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
