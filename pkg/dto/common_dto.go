package dto

type PaginationQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=50"`
}

func (q PaginationQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

// NewPaginationMeta rounds total pages up.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  total,
		Limit:       limit,
	}
}

type AuthorResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// GamificationStatus is a user's personal rank, derived from ledger totals.
type GamificationStatus struct {
	RankName      string  `json:"rank_name"`
	NextRank      string  `json:"next_rank"`
	CurrentPoints int     `json:"current_points"`
	TargetPoints  int     `json:"target_points"`
	Progress      float64 `json:"progress"` // Percentage
	WeeklyPoints  int     `json:"weekly_points"`
	WeeklyLabel   string  `json:"weekly_label"`
}

// ImageFile is an uploaded image handed from a handler to a service.
type ImageFile struct {
	Reader interface {
		Read(p []byte) (n int, err error)
	}
	FileName string
}
