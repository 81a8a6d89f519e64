package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/messages-backend/internal/model"
	"github.com/shinyyama/messages-backend/internal/service"
)

type ConversationHandler struct {
	svc      service.ConversationService
	users    service.UserDirectory
	pageSize int
}

func NewConversationHandler(svc service.ConversationService, users service.UserDirectory, pageSize int) *ConversationHandler {
	return &ConversationHandler{svc: svc, users: users, pageSize: pageSize}
}

type MessageResponse struct {
	ID        uint64 `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

type ConversationResponse struct {
	ID          uint64            `json:"id"`
	SharedID    string            `json:"sharedId"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	CreatedAt   string            `json:"createdAt"`
	ModifiedAt  string            `json:"modifiedAt"`
	Trashed     bool              `json:"trashed"`
	Unread      bool              `json:"unread"`
	LastMessage *MessageResponse  `json:"lastMessage,omitempty"`
	Messages    []MessageResponse `json:"messages,omitempty"`
}

type PageResponse struct {
	Items    []ConversationResponse `json:"items"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
	Total    int64                  `json:"total"`
}

type ComposeRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type ReplyRequest struct {
	Body string `json:"body"`
}

func (h *ConversationHandler) toMessageResponse(c echo.Context, m model.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Author:    h.users.Lookup(c.Request().Context(), m.AuthorUID),
		Body:      m.Body,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

func (h *ConversationHandler) toConversationResponse(c echo.Context, cv model.Conversation, full bool) ConversationResponse {
	resp := ConversationResponse{
		ID:         cv.ID,
		SharedID:   cv.SharedID,
		From:       h.users.Lookup(c.Request().Context(), cv.FromUID),
		To:         h.users.Lookup(c.Request().Context(), cv.ToUID),
		CreatedAt:  cv.CreatedAt.Format(time.RFC3339),
		ModifiedAt: cv.ModifiedAt.Format(time.RFC3339),
		Trashed:    cv.Trashed,
		Unread:     cv.Unread,
	}
	if n := len(cv.Messages); n > 0 {
		last := h.toMessageResponse(c, cv.Messages[n-1])
		resp.LastMessage = &last
	}
	if full {
		resp.Messages = make([]MessageResponse, 0, len(cv.Messages))
		for _, m := range cv.Messages {
			resp.Messages = append(resp.Messages, h.toMessageResponse(c, m))
		}
	}
	return resp
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(c echo.Context, err error, fallback string) error {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "conversation not found"))
	case errors.Is(err, service.ErrQuotaExceeded):
		return c.JSON(http.StatusForbidden, NewErrorResponse("quota_exceeded", "message quota reached"))
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_failed", ve.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", fallback))
	}
}

func callerUID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func idParam(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func (h *ConversationHandler) listPage(c echo.Context, convs []model.Conversation, total int64, page int) error {
	items := make([]ConversationResponse, 0, len(convs))
	for _, cv := range convs {
		items = append(items, h.toConversationResponse(c, cv, false))
	}
	return c.JSON(http.StatusOK, PageResponse{
		Items:    items,
		Page:     page,
		PageSize: h.pageSize,
		Total:    total,
	})
}

func (h *ConversationHandler) Inbox(c echo.Context) error {
	page := pageParam(c)
	convs, total, err := h.svc.Inbox(c.Request().Context(), callerUID(c), page)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch inbox"))
	}
	return h.listPage(c, convs, total, page)
}

func (h *ConversationHandler) Archived(c echo.Context) error {
	page := pageParam(c)
	convs, total, err := h.svc.Archived(c.Request().Context(), callerUID(c), page)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch archive"))
	}
	return h.listPage(c, convs, total, page)
}

func (h *ConversationHandler) ArchivedCount(c echo.Context) error {
	n, err := h.svc.ArchivedCount(c.Request().Context(), callerUID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to count archive"))
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}

func (h *ConversationHandler) View(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	cv, err := h.svc.View(c.Request().Context(), callerUID(c), id)
	if err != nil {
		return writeServiceError(c, err, "failed to fetch conversation")
	}
	return c.JSON(http.StatusOK, h.toConversationResponse(c, *cv, true))
}

func (h *ConversationHandler) Compose(c echo.Context) error {
	var req ComposeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	cv, err := h.svc.CreateThread(c.Request().Context(), callerUID(c), req.To, req.Body)
	if err != nil {
		return writeServiceError(c, err, "failed to send message")
	}
	return c.JSON(http.StatusCreated, h.toConversationResponse(c, *cv, true))
}

func (h *ConversationHandler) Reply(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.svc.Reply(c.Request().Context(), callerUID(c), id, req.Body)
	if err != nil {
		return writeServiceError(c, err, "failed to send reply")
	}
	return c.JSON(http.StatusCreated, h.toMessageResponse(c, *msg))
}

func (h *ConversationHandler) Archive(c echo.Context) error {
	return h.mutate(c, h.svc.Archive, "failed to archive")
}

func (h *ConversationHandler) Unarchive(c echo.Context) error {
	return h.mutate(c, h.svc.Unarchive, "failed to unarchive")
}

func (h *ConversationHandler) Delete(c echo.Context) error {
	return h.mutate(c, h.svc.Delete, "failed to delete")
}

func (h *ConversationHandler) mutate(c echo.Context, op func(ctx context.Context, ownerUID string, id uint64) error, fallback string) error {
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := op(c.Request().Context(), callerUID(c), id); err != nil {
		return writeServiceError(c, err, fallback)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConversationHandler) Raw(c echo.Context) error {
	msgID, err := strconv.ParseUint(c.Param("messageId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	msg, err := h.svc.RawMessage(c.Request().Context(), callerUID(c), msgID)
	if err != nil {
		return writeServiceError(c, err, "failed to fetch message")
	}
	return c.JSON(http.StatusOK, h.toMessageResponse(c, *msg))
}

func (h *ConversationHandler) Quota(c echo.Context) error {
	status, err := h.svc.Quota(c.Request().Context(), callerUID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to check quota"))
	}
	return c.JSON(http.StatusOK, status)
}
