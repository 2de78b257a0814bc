package category

import "time"

// Category groups a team's products. Names are unique within a team.
type Category struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ListFilter struct {
	Search string
	Page   int32
	Limit  int32
}

type ListResult struct {
	Items []Category `json:"items"`
	Total int        `json:"total"`
	Page  int32      `json:"page"`
	Limit int32      `json:"limit"`
}
