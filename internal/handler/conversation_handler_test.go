package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/messages-backend/internal/middleware"
	"github.com/shinyyama/messages-backend/internal/model"
	"github.com/shinyyama/messages-backend/internal/repository"
	"github.com/shinyyama/messages-backend/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	for _, u := range []model.User{
		{UID: "uid-alice", Username: "alice"},
		{UID: "uid-bob", Username: "bob"},
	} {
		u := u
		if err := userRepo.Create(context.Background(), &u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	users := service.NewUserDirectory(userRepo)
	quota := service.NewQuotaChecker(msgRepo, 50, service.QuotaScopeAuthored)
	svc := service.NewConversationService(db, convRepo, msgRepo, users, quota, nil, 10)
	h := NewConversationHandler(svc, users, 10)

	e := echo.New()
	api := e.Group("/api/messages", appmw.RequireIdentity)
	api.GET("/inbox", h.Inbox)
	api.GET("/archived", h.Archived)
	api.GET("/archived/count", h.ArchivedCount)
	api.GET("/quota", h.Quota)
	api.POST("", h.Compose)
	api.GET("/:id", h.View)
	api.POST("/:id/reply", h.Reply)
	api.POST("/:id/archive", h.Archive)
	api.POST("/:id/unarchive", h.Unarchive)
	api.DELETE("/:id", h.Delete)
	api.GET("/raw/:messageId", h.Raw)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, uid, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != "" {
		req.Header.Set(appmw.HeaderForumUID, uid)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RequiresIdentity(t *testing.T) {
	e := testServer(t)
	rec := doJSON(t, e, http.MethodGet, "/api/messages/inbox", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandler_ComposeAndInbox(t *testing.T) {
	e := testServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/messages", "uid-alice", `{"to":"bob","body":"hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("compose status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodGet, "/api/messages/inbox", "uid-bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("inbox status = %d, want %d", rec.Code, http.StatusOK)
	}
	var page PageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("inbox total = %d, items = %d, want 1, 1", page.Total, len(page.Items))
	}
	item := page.Items[0]
	if !item.Unread {
		t.Error("inbox item unread = false, want true")
	}
	if item.From != "alice" || item.To != "bob" {
		t.Errorf("participants = %s -> %s, want alice -> bob", item.From, item.To)
	}
	if item.LastMessage == nil || item.LastMessage.Body != "hello" {
		t.Errorf("lastMessage = %+v, want body hello", item.LastMessage)
	}
}

func TestHandler_ViewClearsUnread(t *testing.T) {
	e := testServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/messages", "uid-alice", `{"to":"bob","body":"hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("compose status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodGet, "/api/messages/inbox", "uid-bob", "")
	var page PageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	id := page.Items[0].ID

	rec = doJSON(t, e, http.MethodGet, "/api/messages/"+itoa(id), "uid-bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("view status = %d: %s", rec.Code, rec.Body.String())
	}
	var cv ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cv); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if cv.Unread {
		t.Error("viewed conversation unread = true, want false")
	}
	if len(cv.Messages) != 1 || cv.Messages[0].Body != "hello" {
		t.Errorf("messages = %+v, want single hello", cv.Messages)
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	e := testServer(t)

	// Unknown recipient -> 400 validation_failed.
	rec := doJSON(t, e, http.MethodPost, "/api/messages", "uid-alice", `{"to":"nobody","body":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown recipient status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Missing conversation -> 404 not_found.
	rec = doJSON(t, e, http.MethodGet, "/api/messages/12345", "uid-alice", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing conversation status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	// Garbage id -> 400.
	rec = doJSON(t, e, http.MethodGet, "/api/messages/abc", "uid-alice", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_QuotaProbe(t *testing.T) {
	e := testServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/messages/quota", "uid-alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("quota status = %d", rec.Code)
	}
	var status service.QuotaStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode quota: %v", err)
	}
	if status.Used != 0 || status.Limit != 50 || status.Exceeded {
		t.Errorf("quota = %+v, want used 0, limit 50, not exceeded", status)
	}
}

func TestHandler_ArchiveFlow(t *testing.T) {
	e := testServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/messages", "uid-alice", `{"to":"bob","body":"hello"}`)
	var cv ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cv); err != nil {
		t.Fatalf("decode compose: %v", err)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/messages/"+itoa(cv.ID)+"/archive", "uid-alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodGet, "/api/messages/archived/count", "uid-alice", "")
	var count map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if count["count"] != 1 {
		t.Errorf("archived count = %d, want 1", count["count"])
	}

	rec = doJSON(t, e, http.MethodDelete, "/api/messages/"+itoa(cv.ID), "uid-alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, "/api/messages/"+itoa(cv.ID), "uid-alice", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted view status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}
