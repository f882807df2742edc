package router

import (
	"fmt"
	"strconv"

	"github.com/DjordjeVuckovic/news-feed/internal/apperr"
	"github.com/DjordjeVuckovic/news-feed/pkg/pagination"
	"github.com/DjordjeVuckovic/news-feed/pkg/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NewValidationWrap("id must be a valid uuid", err)
	}
	return id, nil
}

// parsePage reads page and limit. Missing values take the defaults and limit is clamped.
func parsePage(c echo.Context) (pagination.OffsetRequest, error) {
	var req pagination.OffsetRequest
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &req.Page}, {"limit", &req.Limit}} {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperr.NewValidationWrap(p.name+" must be an integer", err)
		}
		*p.dst = n
	}
	if err := req.Validate(); err != nil {
		return req, apperr.NewValidationWrap(fmt.Sprintf("page must be at most %d", pagination.PageMax), err)
	}
	return req, nil
}

// parseCategories merges the repeatable categories parameter, comma separated
// values included, with the single category parameter.
func parseCategories(c echo.Context) []string {
	values := c.QueryParams()["categories"]
	values = append(values, c.QueryParam("category"))
	return utils.SplitAndTrim(values, ",")
}
