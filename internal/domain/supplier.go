package domain

// Supplier is the vendor record embedded in a product
type Supplier struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	ContactEmail *string  `json:"contact_email,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	Country      string   `json:"country,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// Clone returns a deep copy of the supplier
func (s *Supplier) Clone() *Supplier {
	if s == nil {
		return nil
	}

	cp := *s
	if s.ContactEmail != nil {
		email := *s.ContactEmail
		cp.ContactEmail = &email
	}
	if s.Rating != nil {
		rating := *s.Rating
		cp.Rating = &rating
	}
	if s.IsActive != nil {
		active := *s.IsActive
		cp.IsActive = &active
	}
	return &cp
}
