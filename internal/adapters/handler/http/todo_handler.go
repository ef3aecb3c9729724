package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doable/api/internal/core/domain"
	"github.com/doable/api/internal/core/ports"
)

type TodoHandler struct {
	service ports.TodoService
}

func NewTodoHandler(service ports.TodoService) *TodoHandler {
	return &TodoHandler{service: service}
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		respondErrorMessage(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createTodoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	todo, err := h.service.Create(r.Context(), userID, ports.CreateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		Status:      domain.TodoStatus(req.Status),
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, "Todo created successfully", todo)
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		respondErrorMessage(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := r.URL.Query()
	filter := ports.TodoFilter{
		Search:    q.Get("search"),
		Priority:  q.Get("priority"),
		Completed: q.Get("completed"),
		Status:    q.Get("status"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      intParam(q.Get("page")),
		Limit:     intParam(q.Get("limit")),
	}

	page, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "", page)
}

func (h *TodoHandler) Counts(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		respondErrorMessage(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	counts, err := h.service.Counts(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "", counts)
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	todo, err := h.service.GetByID(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "", todo)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req updateTodoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := ports.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Pinned:      req.Pinned,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		input.Priority = &p
	}
	if req.Status != nil {
		s := domain.TodoStatus(*req.Status)
		input.Status = &s
	}

	todo, err := h.service.Update(r.Context(), userID, id, input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Todo updated successfully", todo)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Todo deleted successfully", nil)
}

func (h *TodoHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	todo, err := h.service.ToggleComplete(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Todo updated successfully", todo)
}

func (h *TodoHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	todo, err := h.service.TogglePin(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Todo updated successfully", todo)
}

func (h *TodoHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	todo, err := h.service.UpdateStatus(r.Context(), userID, id, domain.TodoStatus(req.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, http.StatusOK, "Todo status updated successfully", todo)
}

// ids extracts the authenticated user id and the {id} route param. A
// malformed id is reported as not found, the same as a missing row.
func (h *TodoHandler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := UserID(r.Context())
	if !ok {
		respondErrorMessage(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, domain.ErrTodoNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func intParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
