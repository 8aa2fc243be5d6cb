package handler

import (
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

func toAddressResponse(a *model.Address) dto.AddressResponse {
	return dto.AddressResponse{
		ID:           a.ID,
		Type:         a.Type,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Company:      a.Company,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		Phone:        a.Phone,
		IsDefault:    a.IsDefault,
	}
}

func toAddressResponses(addresses []model.Address) []dto.AddressResponse {
	out := make([]dto.AddressResponse, 0, len(addresses))
	for i := range addresses {
		out = append(out, toAddressResponse(&addresses[i]))
	}
	return out
}

func toCartResponse(cart *model.Cart) dto.CartResponse {
	resp := dto.CartResponse{
		Items:    make([]dto.CartItemResponse, 0, len(cart.Items)),
		Subtotal: cart.Subtotal(),
	}
	for _, item := range cart.Items {
		line := dto.CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		}
		if p := item.Product; p != nil {
			line.Name, line.Slug, line.SKU, line.ImageURL, line.Price = p.Name, p.Slug, p.SKU, p.ImageURL, p.Price
		}
		resp.ItemCount += item.Quantity
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func toCartItemResponse(item *model.CartItem) dto.CartItemResponse {
	return dto.CartItemResponse{ID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity}
}

func toWishlistItemResponse(item *model.WishlistItem) dto.WishlistItemResponse {
	resp := dto.WishlistItemResponse{ID: item.ID, ProductID: item.ProductID, CreatedAt: item.CreatedAt}
	if p := item.Product; p != nil {
		resp.Name, resp.Slug, resp.ImageURL, resp.Price = p.Name, p.Slug, p.ImageURL, p.Price
	}
	return resp
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Email:         o.Email,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		ShippingCost:  o.ShippingCost,
		Discount:      o.Discount,
		Total:         o.Total,
		Currency:      o.Currency,
		CouponCode:    o.CouponCode,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		})
	}
	if o.ShippingAddress != nil {
		a := toAddressResponse(o.ShippingAddress)
		resp.ShippingAddress = &a
	}
	if o.BillingAddress != nil {
		a := toAddressResponse(o.BillingAddress)
		resp.BillingAddress = &a
	}
	return resp
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}
