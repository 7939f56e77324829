package rest

import (
	"errors"

	"github.com/gin-gonic/gin"
)

const MAX_PAGE_SIZE = 100

// ListAchievementsQueryParams holds query parameters for GET /users/:user_id/achievements
type ListAchievementsQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ParseListAchievementsQuery parses query parameters for GET /users/:user_id/achievements
func ParseListAchievementsQuery(c *gin.Context) (*ListAchievementsQueryParams, error) {
	var params ListAchievementsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limit
	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}

	return &params, nil
}

// Validate checks pagination bounds
func (p *ListAchievementsQueryParams) Validate() error {
	if p.Limit < 1 {
		return errors.New("limit must be at least 1")
	}
	if p.Offset < 0 {
		return errors.New("offset must not be negative")
	}
	return nil
}
