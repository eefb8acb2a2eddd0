package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
	"github.com/yungbote/storefront-backend/internal/http/response"
	"github.com/yungbote/storefront-backend/internal/platform/apierr"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// ChildSet binds a parent's URL segment to one of its child sets.
type ChildSet struct {
	Parent     string
	ParentPath string
	Relation   string
}

type RelationshipHandler struct {
	log  *logger.Logger
	rel  domainagg.RelationshipAggregate
	sets []ChildSet
}

func NewRelationshipHandler(log *logger.Logger, rel domainagg.RelationshipAggregate, sets ...ChildSet) *RelationshipHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RelationshipHandler{log: log.With("handler", "RelationshipHandler"), rel: rel, sets: sets}
}

func (h *RelationshipHandler) Register(api *gin.RouterGroup) {
	for _, set := range h.sets {
		set := set
		base := "/" + strings.Trim(set.ParentPath, "/") + "/:id/" + set.Relation
		api.GET(base, func(c *gin.Context) { h.Children(c, set) })
		api.PUT(base, func(c *gin.Context) { h.ReplaceChildren(c, set) })
		api.PUT(base+"/:childId", func(c *gin.Context) { h.Link(c, set) })
		api.DELETE(base+"/:childId", func(c *gin.Context) { h.Unlink(c, set) })
	}
}

func (h *RelationshipHandler) respondChildren(c *gin.Context, set ChildSet, parentID uuid.UUID) {
	ids, err := h.rel.Children(c.Request.Context(), set.Parent, parentID, set.Relation)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, ids)
}

// GET /api/:parent/:id/:relation
func (h *RelationshipHandler) Children(c *gin.Context, set ChildSet) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.respondChildren(c, set, parentID)
}

// PUT /api/:parent/:id/:relation/:childId
func (h *RelationshipHandler) Link(c *gin.Context, set ChildSet) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	childID, ok := pathID(c, "childId")
	if !ok {
		return
	}
	err := h.rel.LinkChild(c.Request.Context(), domainagg.LinkInput{
		Parent: set.Parent, ParentID: parentID, Relation: set.Relation, ChildID: childID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.Alert(c, set.Parent, "updated", parentID.String())
	h.respondChildren(c, set, parentID)
}

// DELETE /api/:parent/:id/:relation/:childId
func (h *RelationshipHandler) Unlink(c *gin.Context, set ChildSet) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	childID, ok := pathID(c, "childId")
	if !ok {
		return
	}
	err := h.rel.UnlinkChild(c.Request.Context(), domainagg.LinkInput{
		Parent: set.Parent, ParentID: parentID, Relation: set.Relation, ChildID: childID,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.Alert(c, set.Parent, "updated", parentID.String())
	response.RespondNoContent(c)
}

// PUT /api/:parent/:id/:relation with a JSON array of child ids
func (h *RelationshipHandler) ReplaceChildren(c *gin.Context, set ChildSet) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := readBody(c)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		response.RespondAggregateError(c, apierr.BadRequest("invalidbody", "expected a JSON array of ids"))
		return
	}
	res, err := h.rel.ReplaceChildren(c.Request.Context(), domainagg.ReplaceChildrenInput{
		Parent: set.Parent, ParentID: parentID, Relation: set.Relation, ChildIDs: ids,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	h.log.Debug("children replaced", "parent", set.Parent, "relation", set.Relation,
		"linked", len(res.Linked), "unlinked", len(res.Unlinked))
	response.Alert(c, set.Parent, "updated", parentID.String())
	children := res.Children
	if children == nil {
		children = []uuid.UUID{}
	}
	response.RespondOK(c, children)
}
