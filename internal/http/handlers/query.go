package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
)

// PageConfig bounds list requests.
type PageConfig struct {
	DefaultSize int
	MaxSize     int
}

func (p PageConfig) withDefaults() PageConfig {
	if p.DefaultSize <= 0 {
		p.DefaultSize = 20
	}
	if p.MaxSize <= 0 {
		p.MaxSize = 200
	}
	if p.DefaultSize > p.MaxSize {
		p.DefaultSize = p.MaxSize
	}
	return p
}

// listQuery reads page, size and repeated sort=field[,asc|desc] parameters.
func listQuery(c *gin.Context, cfg PageConfig) (domainagg.ListQuery, error) {
	const op = "http.listQuery"
	q := domainagg.ListQuery{Size: cfg.DefaultSize}
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, domainagg.NewValidationError(op, domainagg.Violation{Field: "page", Reason: domainagg.ReasonInvalidValue})
		}
		q.Page = n
	}
	if raw := strings.TrimSpace(c.Query("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, domainagg.NewValidationError(op, domainagg.Violation{Field: "size", Reason: domainagg.ReasonInvalidValue})
		}
		q.Size = n
	}
	if q.Size > cfg.MaxSize {
		q.Size = cfg.MaxSize
	}
	for _, raw := range c.QueryArray("sort") {
		parts := strings.Split(raw, ",")
		field := strings.TrimSpace(parts[0])
		if field == "" {
			continue
		}
		key := domainagg.SortKey{Field: field}
		if len(parts) > 1 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "", "asc":
			case "desc":
				key.Desc = true
			default:
				return q, domainagg.NewValidationError(op, domainagg.Violation{Field: "sort", Reason: domainagg.ReasonInvalidValue})
			}
		}
		q.Sort = append(q.Sort, key)
	}
	return q, nil
}

func boolQuery(c *gin.Context, name string, def bool) bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// ifMatch reads an expected version from If-Match, accepting "3", 3 and W/"3".
func ifMatch(c *gin.Context) (*int, error) {
	raw := strings.TrimSpace(c.GetHeader("If-Match"))
	if raw == "" || raw == "*" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, domainagg.NewValidationError("http.ifMatch", domainagg.Violation{Field: "If-Match", Reason: domainagg.ReasonInvalidValue})
	}
	return &n, nil
}
