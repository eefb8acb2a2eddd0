package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// Owner binds an owning entity's URL segment to its entity name.
type Owner struct {
	Entity string
	Path   string
}

type AssociationHandler struct {
	log    *logger.Logger
	rel    domainagg.RelationshipAggregate
	owners []Owner
}

func NewAssociationHandler(log *logger.Logger, rel domainagg.RelationshipAggregate, owners ...Owner) *AssociationHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AssociationHandler{log: log.With("handler", "AssociationHandler"), rel: rel, owners: owners}
}

func (h *AssociationHandler) Register(api *gin.RouterGroup) {
	for _, o := range h.owners {
		o := o
		api.PUT("/"+strings.Trim(o.Path, "/")+"/:id/associations/:name", func(c *gin.Context) { h.Set(c, o) })
	}
}

type associationBody struct {
	ID *uuid.UUID `json:"id"`
}

// PUT /api/:owner/:id/associations/:name with {"id": <uuid>|null}
func (h *AssociationHandler) Set(c *gin.Context, o Owner) {
	ownerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := readBody(c)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		response.RespondAggregateError(c, apierr.BadRequest("invalidbody", "expected a JSON object"))
		return
	}
	idRaw, present := fields["id"]
	if !present {
		response.RespondAggregateError(c, apierr.BadRequest("invalidbody", `body must carry "id", null to clear`))
		return
	}
	var body associationBody
	if !bytes.Equal(bytes.TrimSpace(idRaw), []byte("null")) {
		if err := json.Unmarshal(raw, &body); err != nil {
			response.RespondAggregateError(c, apierr.BadRequest("invalidbody", err.Error()))
			return
		}
	}
	err = h.rel.SetSingularAssociation(c.Request.Context(), domainagg.AssociationInput{
		Owner: o.Entity, OwnerID: ownerID, Name: c.Param("name"), TargetID: body.ID,
	})
	if err != nil {
		h.log.Debug("association rejected", "owner", o.Entity, "id", ownerID, "name", c.Param("name"), "error", err)
		response.RespondAggregateError(c, err)
		return
	}
	response.Alert(c, o.Entity, "updated", ownerID.String())
	response.RespondNoContent(c)
}
