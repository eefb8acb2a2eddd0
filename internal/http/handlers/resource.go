package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storefront-backend/internal/data/patch"
	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/domain/store"
	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type ResourceHandlerDeps[T any] struct {
	Log       *logger.Logger
	Aggregate domainagg.EntityAggregate[T, patch.Patch[T]]
	// Entity is the store entity name, Path the URL segment under /api.
	Entity string
	Path   string
	Paging PageConfig
}

// ResourceHandler serves the CRUD surface of one entity type.
type ResourceHandler[T any] struct {
	log    *logger.Logger
	agg    domainagg.EntityAggregate[T, patch.Patch[T]]
	entity string
	path   string
	paging PageConfig
	eager  bool
}

func NewResourceHandler[T any](deps ResourceHandlerDeps[T]) *ResourceHandler[T] {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &ResourceHandler[T]{
		log:    log.With("handler", deps.Entity+"Handler"),
		agg:    deps.Aggregate,
		entity: deps.Entity,
		path:   strings.Trim(deps.Path, "/"),
		paging: deps.Paging.withDefaults(),
		eager:  len(store.ReferencesFrom(deps.Entity)) > 0,
	}
}

func (h *ResourceHandler[T]) Register(api *gin.RouterGroup) {
	base := "/" + h.path
	api.POST(base, h.Create)
	api.GET(base, h.List)
	api.GET(base+"/:id", h.Get)
	api.PUT(base+"/:id", h.Replace)
	api.PATCH(base+"/:id", h.PartialUpdate)
	api.DELETE(base+"/:id", h.Delete)
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "idinvalid", fmt.Errorf("invalid %s %q", name, c.Param(name)))
		return uuid.Nil, false
	}
	return id, true
}

func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apierr.BadRequest("invalidbody", err.Error())
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, apierr.BadRequest("invalidbody", "request body is empty")
	}
	return raw, nil
}

func decodeEntity[T any](raw []byte) (*T, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, apierr.BadRequest("invalidbody", err.Error())
	}
	return &e, nil
}

// expectedVersion prefers If-Match and falls back to a version in the body.
func expectedVersion[T any](c *gin.Context, p patch.Patch[T]) (*int, error) {
	v, err := ifMatch(c)
	if err != nil || v != nil {
		return v, err
	}
	raw, ok := p.Version().Get()
	if !ok {
		return nil, nil
	}
	n, ok := raw.(int)
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (h *ResourceHandler[T]) location(id uuid.UUID) string {
	return "/api/" + h.path + "/" + id.String()
}

func (h *ResourceHandler[T]) written(c *gin.Context, action string, e *T) {
	meta := any(e).(store.Entity).Meta()
	response.Alert(c, h.entity, action, meta.ID.String())
	response.ETag(c, meta.Version)
}

// POST /api/:resource
func (h *ResourceHandler[T]) Create(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	e, err := decodeEntity[T](raw)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	out, err := h.agg.Create(c.Request.Context(), e)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	h.written(c, "created", out)
	response.RespondCreated(c, h.location(any(out).(store.Entity).Meta().ID), out)
}

// PUT /api/:resource/:id
func (h *ResourceHandler[T]) Replace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := readBody(c)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	e, err := decodeEntity[T](raw)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	p, err := patch.Parse[T](raw)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	version, err := expectedVersion(c, p)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	out, err := h.agg.Replace(c.Request.Context(), id, e, version)
	if err != nil {
		// replace addresses an existing row by body id, so an unknown one is a bad request
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			err = apierr.New(http.StatusBadRequest, "idnotfound", err)
		}
		response.RespondAggregateError(c, err)
		return
	}
	h.written(c, "updated", out)
	response.RespondOK(c, out)
}

// PATCH /api/:resource/:id
func (h *ResourceHandler[T]) PartialUpdate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	switch ct := c.ContentType(); ct {
	case "application/json", "application/merge-patch+json":
	default:
		response.RespondAggregateError(c, apierr.UnsupportedMediaType(ct))
		return
	}
	raw, err := readBody(c)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	p, err := patch.Parse[T](raw)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	version, err := expectedVersion(c, p)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	out, err := h.agg.PartialUpdate(c.Request.Context(), id, p, version)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	h.written(c, "updated", out)
	response.RespondOK(c, out)
}

// GET /api/:resource
func (h *ResourceHandler[T]) List(c *gin.Context) {
	q, err := listQuery(c, h.paging)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	find := h.agg.FindAll
	if h.eager && boolQuery(c, "eagerload", true) {
		find = h.agg.FindAllEager
	}
	res, err := find(c.Request.Context(), q)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.Paginate(c, res.Page, res.Size, res.Total)
	items := res.Items
	if items == nil {
		items = []*T{}
	}
	response.RespondOK(c, items)
}

// GET /api/:resource/:id
func (h *ResourceHandler[T]) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.agg.FindOne(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.ETag(c, any(out).(store.Entity).Meta().Version)
	response.RespondOK(c, out)
}

// DELETE /api/:resource/:id
func (h *ResourceHandler[T]) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.agg.Delete(c.Request.Context(), id); err != nil {
		h.log.Debug("delete rejected", "entity", h.entity, "id", id, "error", err)
		response.RespondAggregateError(c, err)
		return
	}
	response.Alert(c, h.entity, "deleted", id.String())
	response.RespondNoContent(c)
}
