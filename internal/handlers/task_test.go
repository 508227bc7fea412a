package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"tasklist/internal/auth"
	dom "tasklist/internal/domain"
	"tasklist/internal/dto"
	"tasklist/internal/repo"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// memTaskRepo mirrors the Postgres repo's filter semantics in memory so
// handler tests can exercise the whole list contract.
type memTaskRepo struct {
	nextID int64
	tasks  []dom.Task
}

func (m *memTaskRepo) Create(_ context.Context, t dom.Task) (dom.Task, error) {
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	t.UpdatedAt = t.CreatedAt
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *memTaskRepo) matching(f repo.TaskFilter) []dom.Task {
	var out []dom.Task
	for _, t := range m.tasks {
		if t.UserID != f.UserID {
			continue
		}
		if f.IsCompleted != nil && t.IsCompleted != *f.IsCompleted {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, t)
	}
	desc := strings.HasPrefix(f.Sort, "-")
	field := strings.TrimPrefix(f.Sort, "-")
	if field != "createdAt" && field != "title" {
		field, desc = "createdAt", true
	}
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		if field == "title" {
			less = out[i].Title < out[j].Title
		} else {
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

func (m *memTaskRepo) List(_ context.Context, f repo.TaskFilter) ([]dom.Task, error) {
	out := m.matching(f)
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memTaskRepo) Count(_ context.Context, f repo.TaskFilter) (int64, error) {
	return int64(len(m.matching(f))), nil
}

func (m *memTaskRepo) SetCompleted(_ context.Context, userID, id int64, completed bool) (dom.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].ID == id && m.tasks[i].UserID == userID {
			m.tasks[i].IsCompleted = completed
			m.tasks[i].UpdatedAt = time.Now()
			return m.tasks[i], nil
		}
	}
	return dom.Task{}, pgx.ErrNoRows
}

func (m *memTaskRepo) Delete(_ context.Context, userID, id int64) error {
	for i := range m.tasks {
		if m.tasks[i].ID == id && m.tasks[i].UserID == userID {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type taskTestEnv struct {
	router *gin.Engine
	issuer *auth.TokenIssuer
	repo   *memTaskRepo
}

func newTaskTestEnv(t *testing.T) *taskTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	mem := &memTaskRepo{}
	h := NewTaskHandler(service.NewTaskService(mem, nil))

	r := gin.New()
	api := r.Group("/api", auth.RequireToken(issuer))
	api.GET("/tasks", h.List)
	api.POST("/tasks", h.Create)
	api.PUT("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)

	return &taskTestEnv{router: r, issuer: issuer, repo: mem}
}

func (e *taskTestEnv) token(t *testing.T, userID int64, username string) string {
	t.Helper()
	tok, err := e.issuer.Issue(userID, username)
	require.NoError(t, err)
	return tok
}

func (e *taskTestEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func listResponse(t *testing.T, w *httptest.ResponseRecorder) dto.ListTasksResponse {
	t.Helper()
	var resp dto.ListTasksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListTasks_PaginationEnvelope(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")
	bob := env.token(t, 2, "bob")

	for i := 0; i < 25; i++ {
		w := env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": fmt.Sprintf("task %02d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := env.do(t, http.MethodPost, "/api/tasks", bob, gin.H{"title": "bob's task"})
	require.Equal(t, http.StatusCreated, w.Code)

	seen := map[int64]bool{}
	var pages int64
	for page := 1; ; page++ {
		resp := listResponse(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks?page=%d&limit=10", page), alice, nil))
		require.True(t, resp.Success)
		require.Equal(t, int64(25), resp.Pagination.Total)
		require.Equal(t, page, resp.Pagination.Page)
		require.Equal(t, 10, resp.Pagination.Limit)
		require.Equal(t, int64(3), resp.Pagination.TotalPages)
		pages = resp.Pagination.TotalPages
		for _, item := range resp.Data {
			require.False(t, seen[item.ID], "duplicate task across pages")
			require.Equal(t, int64(1), item.UserID)
			seen[item.ID] = true
		}
		if page >= int(pages) {
			break
		}
	}
	// Concatenating all pages yields exactly alice's 25 tasks.
	require.Len(t, seen, 25)
}

func TestListTasks_DefaultsOnBadInput(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")

	env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "only one"})

	resp := listResponse(t, env.do(t, http.MethodGet, "/api/tasks?page=abc&limit=-5", alice, nil))
	require.Equal(t, 1, resp.Pagination.Page)
	require.Equal(t, 10, resp.Pagination.Limit)
	require.Len(t, resp.Data, 1)
}

func TestListTasks_StatusFilter(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")

	env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "open task"})
	w := env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "done task"})
	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	env.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", created.ID), alice, gin.H{"isCompleted": true})

	resp := listResponse(t, env.do(t, http.MethodGet, "/api/tasks?status=true", alice, nil))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "done task", resp.Data[0].Title)
	require.True(t, resp.Data[0].IsCompleted)

	resp = listResponse(t, env.do(t, http.MethodGet, "/api/tasks?status=false", alice, nil))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "open task", resp.Data[0].Title)
}

func TestListTasks_SearchIsCaseInsensitive(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")

	env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "Buy Milk"})
	env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "walk the dog"})

	resp := listResponse(t, env.do(t, http.MethodGet, "/api/tasks?search=milk", alice, nil))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Buy Milk", resp.Data[0].Title)
}

func TestListTasks_SortByTitle(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")

	for _, title := range []string{"cherry", "apple", "banana"} {
		env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": title})
	}

	resp := listResponse(t, env.do(t, http.MethodGet, "/api/tasks?sort=title", alice, nil))
	require.Len(t, resp.Data, 3)
	require.Equal(t, "apple", resp.Data[0].Title)
	require.Equal(t, "cherry", resp.Data[2].Title)

	// Default order is newest first.
	resp = listResponse(t, env.do(t, http.MethodGet, "/api/tasks", alice, nil))
	require.Equal(t, "banana", resp.Data[0].Title)
}

func TestCreateTask(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")

	w := env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "buy milk"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "buy milk", created.Title)
	require.False(t, created.IsCompleted)
	require.Equal(t, int64(1), created.UserID)

	w = env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTask_OwnershipCollapsedTo404(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")
	bob := env.token(t, 2, "bob")

	w := env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "secret"})
	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Bob hits the same id: indistinguishable from a missing task.
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", created.ID), bob, gin.H{"isCompleted": true})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/api/tasks/99999", alice, gin.H{"isCompleted": true})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d", created.ID), alice, gin.H{"isCompleted": true})
	require.Equal(t, http.StatusOK, w.Code)
	var updated dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.True(t, updated.IsCompleted)
}

func TestDeleteTask_OwnershipCollapsedTo404(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")
	bob := env.token(t, 2, "bob")

	w := env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "mine"})
	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.ID), bob, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.DeleteTaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	// Gone now.
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", created.ID), alice, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTasks_OtherUsersNeverVisible(t *testing.T) {
	env := newTaskTestEnv(t)
	alice := env.token(t, 1, "alice")
	bob := env.token(t, 2, "bob")

	env.do(t, http.MethodPost, "/api/tasks", alice, gin.H{"title": "alice task"})
	env.do(t, http.MethodPost, "/api/tasks", bob, gin.H{"title": "bob task"})

	resp := listResponse(t, env.do(t, http.MethodGet, "/api/tasks", bob, nil))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "bob task", resp.Data[0].Title)
	require.Equal(t, int64(1), resp.Pagination.Total)
}

func TestTasks_RequireAuth(t *testing.T) {
	env := newTaskTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
