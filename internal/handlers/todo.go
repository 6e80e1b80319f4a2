package handlers

import (
	"context"
	"net/http"

	dom "todoapi/internal/domain"
	"todoapi/internal/dto"
	"todoapi/internal/middleware"

	"github.com/gin-gonic/gin"
)

// TodoService is what the handlers need from the service layer.
type TodoService interface {
	List(ctx context.Context, status dom.Status) ([]dom.Todo, error)
	GetByID(ctx context.Context, id int64) (dom.Todo, error)
	Create(ctx context.Context, title string, desc *string, completed bool) (dom.Todo, error)
	Update(ctx context.Context, id int64, patch dom.TodoPatch) (dom.Todo, error)
	Delete(ctx context.Context, id int64) error
}

type TodoHandler struct {
	svc TodoService
}

func NewTodoHandler(svc TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List godoc
// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Param        status  query     string  false  "Filter"  Enums(completed, pending)
// @Success      200     {object}  dto.ListTodosResponse
// @Failure      500     {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), dom.ParseStatus(c.Query("status")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTodosResponse{
		Success: true,
		Data:    dto.TodosToResponses(list),
		Count:   len(list),
	})
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoEnvelope
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), middleware.ID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.TodoEnvelope{Success: true, Data: dto.TodoToResponse(t)})
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	in := middleware.CreateInput(c)
	completed := false
	if in.Completed != nil {
		completed = *in.Completed
	}
	t, err := h.svc.Create(c.Request.Context(), in.Title, in.Description, completed)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.TodoEnvelope{
		Success: true,
		Message: "Todo created successfully",
		Data:    dto.TodoToResponse(t),
	})
}

// Update godoc
// @Summary      Update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.TodoEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	t, err := h.svc.Update(c.Request.Context(), middleware.ID(c), middleware.UpdateInput(c).Patch())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.TodoEnvelope{
		Success: true,
		Message: "Todo updated successfully",
		Data:    dto.TodoToResponse(t),
	})
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.ID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Todo deleted successfully"})
}
