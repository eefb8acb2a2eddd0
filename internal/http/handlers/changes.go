package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type ChangeHandler struct {
	log     *logger.Logger
	changes repos.ChangeRepo
	paging  PageConfig
}

func NewChangeHandler(log *logger.Logger, changes repos.ChangeRepo, paging PageConfig) *ChangeHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ChangeHandler{log: log.With("handler", "ChangeHandler"), changes: changes, paging: paging.withDefaults()}
}

// GET /api/changes?entity=&entityId=&page=&size=
func (h *ChangeHandler) List(c *gin.Context) {
	q, err := listQuery(c, h.paging)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	filter := repos.ChangeFilter{
		Entity: strings.TrimSpace(c.Query("entity")),
		Page:   q.Page,
		Size:   q.Size,
	}
	if raw := strings.TrimSpace(c.Query("entityId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAggregateError(c, apierr.BadRequest("idinvalid", "entityId must be a uuid"))
			return
		}
		filter.EntityID = id
	}
	rows, total, err := h.changes.List(c.Request.Context(), nil, filter)
	if err != nil {
		h.log.Error("list changes failed", "error", err)
		response.RespondAggregateError(c, err)
		return
	}
	response.Paginate(c, q.Page, q.Size, total)
	if rows == nil {
		rows = []*store.Change{}
	}
	response.RespondOK(c, rows)
}
