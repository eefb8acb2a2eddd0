package response

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const HeaderTotalCount = "X-Total-Count"

// Paginate sets X-Total-Count and an RFC 5988 Link header with first, prev, next
// and last relations. page is 0-based.
func Paginate(c *gin.Context, page, size int, total int64) {
	c.Header(HeaderTotalCount, strconv.FormatInt(total, 10))
	if size <= 0 {
		return
	}
	last := 0
	if total > 0 {
		last = int((total - 1) / int64(size))
	}

	base := *c.Request.URL
	link := func(p int, rel string) string {
		q := url.Values{}
		for k, v := range base.Query() {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		q.Set("size", strconv.Itoa(size))
		u := base
		u.RawQuery = q.Encode()
		return fmt.Sprintf("<%s>; rel=\"%s\"", u.RequestURI(), rel)
	}

	var parts []string
	if page < last {
		parts = append(parts, link(page+1, "next"))
	}
	if page > 0 && page <= last {
		parts = append(parts, link(page-1, "prev"))
	}
	parts = append(parts, link(last, "last"), link(0, "first"))
	c.Header("Link", strings.Join(parts, ","))
}
