package customer

import "time"

type Customer struct {
	ID             int64      `json:"id"`
	TeamID         int64      `json:"team_id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	PatronymicName *string    `json:"patronymic_name,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Address        *string    `json:"address,omitempty"`
	City           *string    `json:"city,omitempty"`
	Zip            *string    `json:"zip,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

type Input struct {
	FirstName      string  `json:"first_name" validate:"min=2,max=255"`
	LastName       string  `json:"last_name" validate:"min=2,max=255"`
	PatronymicName *string `json:"patronymic_name" validate:"omitempty,min=2,max=255"`
	Email          *string `json:"email" validate:"omitempty,email,max=255"`
	Phone          *string `json:"phone" validate:"omitempty,intl_phone"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	City           *string `json:"city" validate:"omitempty,max=255"`
	Zip            *string `json:"zip" validate:"omitempty,max=32"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

// Contact is the subset of customer fields an order form can carry inline.
type Contact struct {
	FirstName string
	LastName  string
	Phone     *string
	Address   *string
}

// Input widens c into a full customer input with everything else empty.
func (c Contact) Input() Input {
	return Input{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Address:   c.Address,
	}
}

type ListFilter struct {
	Search string
	Page   int32
	Limit  int32
}

type ListResult struct {
	Items []Customer `json:"items"`
	Total int        `json:"total"`
	Page  int32      `json:"page"`
	Limit int32      `json:"limit"`
}
