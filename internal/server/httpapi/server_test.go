package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/dbx"
	"github.com/akozlovs/gamersnet/internal/logging"
	"github.com/akozlovs/gamersnet/internal/server/config"
	"github.com/akozlovs/gamersnet/internal/server/models"
	"github.com/akozlovs/gamersnet/internal/server/ratelimit"
	postsrepo "github.com/akozlovs/gamersnet/internal/server/repositories/posts"
	usersrepo "github.com/akozlovs/gamersnet/internal/server/repositories/users"
	"github.com/akozlovs/gamersnet/internal/server/services"
	"github.com/akozlovs/gamersnet/internal/server/sessions"
)

// memStore is an in-memory stand-in for the database, shared by the user and
// post repository fakes so that cross-entity references behave like the real
// thing.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	userOrder []string
	posts     map[string]*models.Post
	postOrder []string
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
	}
}

type memUsersRepo struct{ st *memStore }

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, exists := r.st.users[u.Username]; exists {
		return nil, errors.New("db error: duplicate username")
	}
	stored := *u
	r.st.users[u.Username] = &stored
	r.st.userOrder = append(r.st.userOrder, u.Username)
	return &stored, nil
}

func (r *memUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if u, ok := r.st.users[username]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*models.User
	for i := offset; i < len(r.st.userOrder) && len(out) < limit; i++ {
		copied := *r.st.users[r.st.userOrder[i]]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memUsersRepo) Update(ctx context.Context, username string, patch *models.UserPatch) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[username]
	if !ok {
		return common.ErrorNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Password != nil {
		u.PasswordHash = *patch.Password
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Country != nil {
		u.Country = *patch.Country
	}
	if patch.BornDate != nil {
		u.BornDate = patch.BornDate
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = *patch.PhotoURL
	}
	if patch.GameList != nil {
		u.GameList = *patch.GameList
	}
	if patch.LinkList != nil {
		u.LinkList = *patch.LinkList
	}
	if patch.Biography != nil {
		u.Biography = *patch.Biography
	}
	return nil
}

func (r *memUsersRepo) Delete(ctx context.Context, username string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.users[username]; !ok {
		return common.ErrorNotFound
	}
	delete(r.st.users, username)
	for i, name := range r.st.userOrder {
		if name == username {
			r.st.userOrder = append(r.st.userOrder[:i], r.st.userOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memUsersRepo) AppendPostID(ctx context.Context, username, postID string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[username]
	if !ok {
		return common.ErrorNotFound
	}
	u.PostIDs = append(u.PostIDs, postID)
	return nil
}

func (r *memUsersRepo) RemovePostID(ctx context.Context, username, postID string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[username]
	if !ok {
		return nil
	}
	for i, id := range u.PostIDs {
		if id == postID {
			u.PostIDs = append(u.PostIDs[:i], u.PostIDs[i+1:]...)
			break
		}
	}
	return nil
}

type memPostsRepo struct{ st *memStore }

func (r *memPostsRepo) withOwner(p *models.Post) *models.PostWithOwner {
	out := &models.PostWithOwner{Post: *p}
	if u, ok := r.st.users[p.OwnerUsername]; ok {
		out.Owner = models.OwnerSummary{Username: u.Username, Name: u.Name, PhotoURL: u.PhotoURL}
	}
	return out
}

func (r *memPostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stored := *p
	stored.CreatedAt = time.Now()
	r.st.posts[p.ID] = &stored
	r.st.postOrder = append(r.st.postOrder, p.ID)
	return &stored, nil
}

func (r *memPostsRepo) GetByID(ctx context.Context, id string) (*models.PostWithOwner, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if p, ok := r.st.posts[id]; ok {
		return r.withOwner(p), nil
	}
	return nil, common.ErrorNotFound
}

func (r *memPostsRepo) List(ctx context.Context, offset, limit int) ([]*models.PostWithOwner, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*models.PostWithOwner
	for i := offset; i < len(r.st.postOrder) && len(out) < limit; i++ {
		out = append(out, r.withOwner(r.st.posts[r.st.postOrder[i]]))
	}
	return out, nil
}

func (r *memPostsRepo) UpdateText(ctx context.Context, id, text string) (*models.Post, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p.Text = text
	copied := *p
	return &copied, nil
}

func (r *memPostsRepo) Delete(ctx context.Context, id string) (*models.Post, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.st.posts, id)
	for i, postID := range r.st.postOrder {
		if postID == id {
			r.st.postOrder = append(r.st.postOrder[:i], r.st.postOrder[i+1:]...)
			break
		}
	}
	return p, nil
}

type memRepoManager struct{ st *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return &memUsersRepo{st: m.st} }
func (m *memRepoManager) Posts(db dbx.DBTX) postsrepo.Repository      { return &memPostsRepo{st: m.st} }

type testEnv struct {
	e    *echo.Echo
	mock sqlmock.Sqlmock
	st   *memStore
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimiter(t, ratelimit.NewKeyedLimiter(600, 600))
}

func newTestEnvWithLimiter(t *testing.T, limiter *ratelimit.KeyedLimiter) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	t.Cleanup(limiter.Close)

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccessTokenValidityDuration = time.Hour
	cfg.RefreshTokenValidityDuration = 2 * time.Hour

	sessionStore := sessions.NewMemoryStore(time.Hour)
	t.Cleanup(sessionStore.Close)

	st := newMemStore()
	rm := &memRepoManager{st: st}

	us := services.NewUserService(db, rm, sessionStore, logger, cfg)
	ps := services.NewPostService(db, rm, logger)
	phs := services.NewPhotoService(cfg)

	srv, err := NewHTTPServer(":0", logger, us, ps, phs, limiter, cfg.AccessTokenKey)
	if err != nil {
		t.Fatalf("NewHTTPServer error: %v", err)
	}

	return &testEnv{e: srv.newEcho(), mock: mock, st: st}
}

func (env *testEnv) addUser(t *testing.T, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	env.st.users[username] = &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Name:         strings.ToUpper(username[:1]) + username[1:],
		Role:         "user",
	}
	env.st.userOrder = append(env.st.userOrder, username)
}

func (env *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func checkMessage(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: want %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body["message"] != message {
		t.Fatalf("message: want %q, got %q", message, body["message"])
	}
}

func (env *testEnv) loginToken(t *testing.T, username, password string) loginResponse {
	t.Helper()
	rec := env.do(http.MethodPost, "/users/login", `{"username":"`+username+`","password":"`+password+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login body: %v", err)
	}
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")

	resp := env.loginToken(t, "alice", "p")
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", resp)
	}

	rec := env.do(http.MethodPost, "/users/login", `{"username":"alice","password":"wrong"}`, nil)
	checkMessage(t, rec, http.StatusBadRequest, "Invalid User Or Password")
}

func TestRefreshEndpoint_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")

	rec := env.do(http.MethodPost, "/users/refresh",
		`{"username":"alice","password":"p","refreshToken":"never-issued"}`, nil)
	checkMessage(t, rec, http.StatusNotFound, "Bad Request")
}

func TestRefreshEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	tokens := env.loginToken(t, "alice", "p")

	rec := env.do(http.MethodPost, "/users/refresh",
		`{"username":"alice","password":"p","refreshToken":"`+tokens.RefreshToken+`"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp refreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("refresh body: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected an access token")
	}
}

func TestRegisterEndpoint_EmptyPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/users", `{"username":"alice"}`, nil)
	checkMessage(t, rec, http.StatusBadRequest, "Password Can't Be Empty")
}

func TestRegisterEndpoint_ReturnsListing(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "bob", "p")

	rec := env.do(http.MethodPost, "/users",
		`{"username":"alice","password":"p","name":"Alice","country":"LV"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	var listing []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("register body: %v", err)
	}
	if len(listing) != 2 {
		t.Fatalf("expected listing with both users, got %v", listing)
	}
	for _, item := range listing {
		if _, leaked := item["username"]; leaked {
			t.Fatalf("listing must not expose usernames: %v", item)
		}
	}
}

func TestGetUser_PublicVsSelfView(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	tokens := env.loginToken(t, "alice", "p")

	public := env.do(http.MethodGet, "/users/alice", "", nil)
	if public.Code != http.StatusOK {
		t.Fatalf("public view failed: %d", public.Code)
	}
	var publicBody map[string]any
	if err := json.Unmarshal(public.Body.Bytes(), &publicBody); err != nil {
		t.Fatalf("public body: %v", err)
	}
	if _, leaked := publicBody["email"]; leaked {
		t.Fatalf("public view must not expose email: %v", publicBody)
	}

	self := env.do(http.MethodGet, "/users/alice", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + tokens.Token,
	})
	var selfBody map[string]any
	if err := json.Unmarshal(self.Body.Bytes(), &selfBody); err != nil {
		t.Fatalf("self body: %v", err)
	}
	if selfBody["username"] != "alice" || selfBody["email"] != "alice@example.com" {
		t.Fatalf("self view must include username and email: %v", selfBody)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/users/ghost", "", nil)
	checkMessage(t, rec, http.StatusNotFound, "Page Not Found")
}

func TestListUsers_BadPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/users?page=abc", "", nil)
	checkMessage(t, rec, http.StatusBadRequest, "Bad Request")
}

func TestListPosts_PastTheEnd(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/posts?page=5", "", nil)
	checkMessage(t, rec, http.StatusNotFound, "Page Not Found")
}

func TestCreatePost_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/posts", `{"text":"hello"}`, nil)
	checkMessage(t, rec, http.StatusUnauthorized, "Unauthorized")

	rec = env.do(http.MethodPost, "/posts", `{"text":"hello"}`, map[string]string{
		echo.HeaderAuthorization: "Bearer not-a-jwt",
	})
	checkMessage(t, rec, http.StatusUnauthorized, "Unauthorized")
}

func TestCreatePost_Flow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	tokens := env.loginToken(t, "alice", "p")

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	rec := env.do(http.MethodPost, "/posts", `{"text":"hello world"}`, map[string]string{
		echo.HeaderAuthorization: "Bearer " + tokens.Token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create post failed: %d %s", rec.Code, rec.Body.String())
	}

	var listing []postView
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("create body: %v", err)
	}
	if len(listing) != 1 || listing[0].Text != "hello world" {
		t.Fatalf("unexpected listing: %+v", listing)
	}
	if listing[0].Owner.Username != "alice" {
		t.Fatalf("owner summary missing: %+v", listing[0])
	}
	if got := env.st.users["alice"].PostIDs; len(got) != 1 || got[0] != listing[0].ID {
		t.Fatalf("owner back-reference missing: %v", got)
	}
}

func TestDeletePost_Flow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	tokens := env.loginToken(t, "alice", "p")

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	create := env.do(http.MethodPost, "/posts", `{"text":"hello"}`, map[string]string{
		echo.HeaderAuthorization: "Bearer " + tokens.Token,
	})
	var listing []postView
	if err := json.Unmarshal(create.Body.Bytes(), &listing); err != nil {
		t.Fatalf("create body: %v", err)
	}

	rec := env.do(http.MethodDelete, "/posts/"+listing[0].ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete post failed: %d %s", rec.Code, rec.Body.String())
	}
	if len(env.st.users["alice"].PostIDs) != 0 {
		t.Fatalf("back-reference not removed: %v", env.st.users["alice"].PostIDs)
	}
	if len(env.st.posts) != 0 {
		t.Fatalf("post row not removed")
	}
}

func TestDeletePost_NotFound(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectRollback()

	rec := env.do(http.MethodDelete, "/posts/a2720b95-3f67-40f0-8213-9a6b16b51c1d", "", nil)
	checkMessage(t, rec, http.StatusNotFound, "Page Not Found")
}

func TestEditUser_SparsePatch(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	env.st.users["alice"].Biography = "old bio"

	rec := env.do(http.MethodPut, "/users/alice", `{"country":"EE"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit failed: %d %s", rec.Code, rec.Body.String())
	}

	u := env.st.users["alice"]
	if u.Country != "EE" {
		t.Fatalf("country not updated: %+v", u)
	}
	if u.Biography != "old bio" {
		t.Fatalf("absent fields must stay untouched: %+v", u)
	}
}

func TestEditUser_ViewFollowsRequester(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")

	anon := env.do(http.MethodPut, "/users/alice", `{}`, nil)
	if anon.Code != http.StatusOK {
		t.Fatalf("edit failed: %d %s", anon.Code, anon.Body.String())
	}
	var anonBody map[string]any
	if err := json.Unmarshal(anon.Body.Bytes(), &anonBody); err != nil {
		t.Fatalf("edit body: %v", err)
	}
	if _, leaked := anonBody["email"]; leaked {
		t.Fatalf("unauthenticated edit response must not expose email: %v", anonBody)
	}
	if _, leaked := anonBody["username"]; leaked {
		t.Fatalf("unauthenticated edit response must not expose username: %v", anonBody)
	}

	tokens := env.loginToken(t, "alice", "p")
	self := env.do(http.MethodPut, "/users/alice", `{}`, map[string]string{
		echo.HeaderAuthorization: "Bearer " + tokens.Token,
	})
	var selfBody map[string]any
	if err := json.Unmarshal(self.Body.Bytes(), &selfBody); err != nil {
		t.Fatalf("self edit body: %v", err)
	}
	if selfBody["username"] != "alice" || selfBody["email"] != "alice@example.com" {
		t.Fatalf("self edit must return the self view: %v", selfBody)
	}
}

func TestDeleteUser_ReturnsListing(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	env.addUser(t, "bob", "p")

	rec := env.do(http.MethodDelete, "/users/alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}
	var listing []userSummaryView
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("delete body: %v", err)
	}
	if len(listing) != 1 || listing[0].Name != "Bob" {
		t.Fatalf("unexpected listing after delete: %+v", listing)
	}
}

func TestPresignPhoto_SelfOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", "p")
	env.addUser(t, "bob", "p")
	tokens := env.loginToken(t, "alice", "p")

	rec := env.do(http.MethodPost, "/users/bob/photo", "", map[string]string{
		echo.HeaderAuthorization: "Bearer " + tokens.Token,
	})
	checkMessage(t, rec, http.StatusUnauthorized, "Unauthorized")

	rec = env.do(http.MethodPost, "/users/alice/photo", "", nil)
	checkMessage(t, rec, http.StatusUnauthorized, "Unauthorized")
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnvWithLimiter(t, ratelimit.NewKeyedLimiter(1, 2))
	env.addUser(t, "alice", "p")

	env.loginToken(t, "alice", "p")
	env.loginToken(t, "alice", "p")

	rec := env.do(http.MethodPost, "/users/login", `{"username":"alice","password":"p"}`, nil)
	checkMessage(t, rec, http.StatusTooManyRequests, "Too Many Requests")
}
