package server

import (
	"net/http"
	"strings"

	"rehabinv-cli/internal/inventory"
	"rehabinv-cli/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) list(c *gin.Context) {
	items, err := s.repo.GetAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

func (s *Server) create(c *gin.Context) {
	var draft model.ItemDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	draft.Name = plainText(draft.Name)
	draft.Notes = plainText(draft.Notes)
	if err := inventory.ValidateValue(draft.Value, draft.Type); err != nil {
		s.fail(c, err)
		return
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := c.Request.Context()
	existing, err := s.repo.GetAll(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := inventory.ValidateName(draft.Name, existing, ""); err != nil {
		s.fail(c, err)
		return
	}
	it, err := s.repo.AddItem(ctx, draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("item created", zap.String("id", it.ID), zap.String("name", it.Name))
	ok(c, http.StatusCreated, it)
}

// update applies a partial update. Values are clamped to the item type's range
// (last write wins).
func (s *Server) update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var patch model.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if patch.Notes != nil {
		n := plainText(*patch.Notes)
		patch.Notes = &n
	}
	if patch.UpdatedAt == nil {
		now := s.now().UTC()
		patch.UpdatedAt = &now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.repo.UpdateItem(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, it)
}

func (s *Server) remove(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteItem(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("item deleted", zap.String("id", id))
	c.JSON(http.StatusOK, model.Envelope[any]{Success: true})
}

func (s *Server) bulkUpdate(c *gin.Context) {
	var req model.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	now := s.now().UTC()
	items := make([]model.Item, 0, len(req.Items))
	for _, it := range req.Items {
		it.Name = plainText(it.Name)
		it.Notes = plainText(it.Notes)
		if !it.Type.Valid() {
			s.fail(c, inventory.ValidateValue(it.Value, it.Type))
			return
		}
		it.Value = inventory.Clamp(it.Value, it.Type)
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = now
		}
		items = append(items, it)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.repo.UpsertAll(c.Request.Context(), items)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log.Info("bulk update", zap.Int("items", len(out)))
	ok(c, http.StatusOK, out)
}
