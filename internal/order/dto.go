package order

// CreateOrderRequest payload de checkout: las direcciones deben pertenecer
// al usuario autenticado; las lineas salen de su carrito.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	ShippingAddressID string `json:"shipping_address_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	BillingAddressID  string `json:"billing_address_id"  example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
}

// UpdateStatusRequest payload del cambio de estado (solo admin).
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"delivered"`
}

// ShipOrderRequest payload opcional para marcar una orden como enviada.
// swagger:model ShipOrderRequest
type ShipOrderRequest struct {
	ShippedAt string `json:"shipped_at,omitempty" example:"2025-11-02T15:04:05Z"`
}
