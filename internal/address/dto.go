package address

// CreateAddressRequest payload de alta de dirección.
// swagger:model CreateAddressRequest
type CreateAddressRequest struct {
	Type       string `json:"type"        binding:"required,oneof=shipping billing" example:"shipping"`
	Street     string `json:"street"      binding:"required" example:"Av. Insurgentes Sur 1234"`
	City       string `json:"city"        binding:"required" example:"CDMX"`
	State      string `json:"state"       example:"CDMX"`
	PostalCode string `json:"postal_code" binding:"required" example:"03100"`
	Country    string `json:"country"     binding:"required" example:"MX"`
	IsDefault  bool   `json:"is_default"  example:"true"`
}
