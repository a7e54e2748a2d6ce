package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password123"
)

type testEnv struct {
	server   *httptest.Server
	db       *sql.DB
	registry *notify.Registry
}

func setupTestServer(t *testing.T, opts Options) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	if opts.Registry == nil {
		opts.Registry = notify.NewRegistry()
	}
	server := httptest.NewServer(LoggingMiddleware(MetricsMiddleware(NewRouter(database, testJWTSecret, opts))))
	t.Cleanup(server.Close)
	t.Cleanup(opts.Registry.Close)
	return &testEnv{server: server, db: database, registry: opts.Registry}
}

// createUser stores a user directly and returns a token for it.
func (e *testEnv) createUser(t *testing.T, email string, role model.Role) (*model.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user, err := store.CreateUser(context.Background(), e.db, strings.Split(email, "@")[0], email, string(hash), role)
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	token, err := auth.GenerateToken(testJWTSecret, user)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return user, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader = bytes.NewReader(nil)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// call performs a request and decodes the JSON response into out (if not nil).
func (e *testEnv) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, e.server.URL+path, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func foundItem(questions ...string) map[string]any {
	return map[string]any{
		"type":                  "FOUND",
		"title":                 "Black leather wallet",
		"description":           "Found on the 6 bus",
		"category":              "Documents",
		"location":              "Maribor",
		"date":                  "2026-05-02",
		"verificationQuestions": questions,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t, Options{})

	var reg loginResponse
	status := env.call(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": testPassword,
	}, &reg)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d", status)
	}
	if reg.Token == "" || reg.User == nil || reg.User.Role != model.RoleMember {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	status = env.call(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana again", "email": "ANA@example.com", "password": testPassword,
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate email, got %d", status)
	}

	status = env.call(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "short",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", status)
	}

	status = env.call(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", status)
	}

	var login loginResponse
	status = env.call(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": testPassword,
	}, &login)
	if status != http.StatusOK || login.Token == "" {
		t.Fatalf("login failed: %d", status)
	}

	var profile model.User
	if status := env.call(t, "GET", "/api/auth/profile", login.Token, nil, &profile); status != http.StatusOK {
		t.Fatalf("expected 200 from profile, got %d", status)
	}
	if profile.Email != "ana@example.com" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestChangePasswordAndLogout(t *testing.T) {
	env := setupTestServer(t, Options{})
	_, token := env.createUser(t, "ana@example.com", model.RoleMember)

	status := env.call(t, "PUT", "/api/auth/password", token, map[string]string{
		"currentPassword": "not-it", "newPassword": "another-password",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", status)
	}

	status = env.call(t, "PUT", "/api/auth/password", token, map[string]string{
		"currentPassword": testPassword, "newPassword": "another-password",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from password change, got %d", status)
	}

	if status := env.call(t, "POST", "/api/auth/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", status)
	}
	if status := env.call(t, "GET", "/api/auth/profile", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 with revoked token, got %d", status)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t, Options{})

	if status := env.call(t, "GET", "/api/items", "", nil, nil); status != http.StatusOK {
		t.Errorf("expected 200 for public item list, got %d", status)
	}
	if status := env.call(t, "POST", "/api/items", "", foundItem(), nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous item create, got %d", status)
	}
	if status := env.call(t, "GET", "/api/claims/my", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", status)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	env := setupTestServer(t, Options{})
	owner, ownerToken := env.createUser(t, "owner@example.com", model.RoleMember)
	_, strangerToken := env.createUser(t, "stranger@example.com", model.RoleMember)

	var item model.Item
	if status := env.call(t, "POST", "/api/items", ownerToken, foundItem("Colour?"), &item); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if item.Status != model.ItemStatusOpen || item.UserID != owner.ID {
		t.Errorf("unexpected item: %+v", item)
	}

	bad := foundItem()
	delete(bad, "category")
	if status := env.call(t, "POST", "/api/items", ownerToken, bad, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing category, got %d", status)
	}

	var got model.Item
	if status := env.call(t, "GET", fmt.Sprintf("/api/items/%d", item.ID), "", nil, &got); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got.User == nil || got.User.Email != "owner@example.com" {
		t.Errorf("expected owner to be expanded, got %+v", got.User)
	}

	var page struct {
		Items []model.Item `json:"items"`
		Page  int          `json:"page"`
		Pages int          `json:"pages"`
	}
	if status := env.call(t, "GET", "/api/items?keyword=WALLET&pageNumber=1", "", nil, &page); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(page.Items) != 1 || page.Page != 1 || page.Pages != 1 {
		t.Errorf("unexpected page: %+v", page)
	}

	path := fmt.Sprintf("/api/items/%d", item.ID)
	if status := env.call(t, "PUT", path, strangerToken, map[string]string{"title": "Mine"}, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for stranger update, got %d", status)
	}
	if status := env.call(t, "PUT", path, ownerToken, map[string]string{"type": "LOST"}, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for type change, got %d", status)
	}
	if status := env.call(t, "PUT", path, ownerToken, map[string]string{"status": "RESOLVED"}, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for RESOLVED status, got %d", status)
	}

	var updated model.Item
	if status := env.call(t, "PUT", path, ownerToken, map[string]string{"title": "Brown wallet"}, &updated); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if updated.Title != "Brown wallet" || updated.Type != model.ItemTypeFound {
		t.Errorf("unexpected update result: %+v", updated)
	}

	var mine []model.Item
	if status := env.call(t, "GET", "/api/items/mine", ownerToken, nil, &mine); status != http.StatusOK || len(mine) != 1 {
		t.Errorf("expected 1 own item, got %d (status %d)", len(mine), status)
	}

	if status := env.call(t, "DELETE", path, strangerToken, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for stranger delete, got %d", status)
	}
	var msg map[string]string
	if status := env.call(t, "DELETE", path, ownerToken, nil, &msg); status != http.StatusOK || msg["message"] == "" {
		t.Errorf("expected 200 with message, got %d %v", status, msg)
	}
	if status := env.call(t, "GET", path, "", nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}
}

func TestClaimsAPIFlow(t *testing.T) {
	env := setupTestServer(t, Options{RequireOpenItem: true})
	_, finderToken := env.createUser(t, "finder@example.com", model.RoleMember)
	claimant, claimantToken := env.createUser(t, "claimant@example.com", model.RoleMember)
	_, lateToken := env.createUser(t, "late@example.com", model.RoleMember)

	var item model.Item
	env.call(t, "POST", "/api/items", finderToken, foundItem("Colour?", "What is inside?"), &item)

	// Answers may arrive as strings or objects.
	submission := map[string]any{
		"itemId":  item.ID,
		"answers": []any{"Black", map[string]string{"question": "What is inside?", "answer": "A library card"}},
	}
	var claim model.Claim
	if status := env.call(t, "POST", "/api/claims", claimantToken, submission, &claim); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if claim.Status != model.ClaimStatusPending || len(claim.Answers) != 2 || claim.Answers[0].Question != "Colour?" {
		t.Errorf("unexpected claim: %+v", claim)
	}

	var errBody map[string]string
	if status := env.call(t, "POST", "/api/claims", claimantToken, submission, &errBody); status != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate claim, got %d", status)
	}
	if !strings.Contains(errBody["error"], "already submitted") {
		t.Errorf("unexpected duplicate error: %v", errBody)
	}

	if status := env.call(t, "POST", "/api/claims", claimantToken, map[string]any{"itemId": 9999}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", status)
	}

	var mine []model.Claim
	if status := env.call(t, "GET", "/api/claims/my", claimantToken, nil, &mine); status != http.StatusOK || len(mine) != 1 {
		t.Fatalf("expected 1 claim, got %d (status %d)", len(mine), status)
	}
	if mine[0].Item == nil || mine[0].Item.ID != item.ID {
		t.Errorf("expected claim item to be expanded, got %+v", mine[0].Item)
	}

	itemClaims := fmt.Sprintf("/api/claims/item/%d", item.ID)
	if status := env.call(t, "GET", itemClaims, claimantToken, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-owner listing, got %d", status)
	}
	var onItem []model.Claim
	if status := env.call(t, "GET", itemClaims, finderToken, nil, &onItem); status != http.StatusOK || len(onItem) != 1 {
		t.Fatalf("expected 1 claim on item, got %d (status %d)", len(onItem), status)
	}
	if onItem[0].Claimer == nil || onItem[0].Claimer.ID != claimant.ID {
		t.Errorf("expected claimant identity, got %+v", onItem[0].Claimer)
	}
	var rawOnItem []map[string]any
	env.call(t, "GET", itemClaims, finderToken, nil, &rawOnItem)
	if len(rawOnItem) != 1 {
		t.Fatalf("expected 1 claim on item, got %d", len(rawOnItem))
	}
	claimer, _ := rawOnItem[0]["claimer"].(map[string]any)
	if score, ok := claimer["reputationScore"]; !ok || score != float64(0) {
		t.Errorf("expected claimant reputationScore 0 in response, got %v (present %v)", score, ok)
	}

	decide := fmt.Sprintf("/api/claims/%d", claim.ID)
	if status := env.call(t, "PUT", decide, claimantToken, map[string]string{"status": "APPROVED"}, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for claimant deciding, got %d", status)
	}
	var approved model.Claim
	if status := env.call(t, "PUT", decide, finderToken, map[string]string{"status": "APPROVED", "feedback": "See you at noon"}, &approved); status != http.StatusOK {
		t.Fatalf("expected 200 from approve, got %d", status)
	}
	if approved.Status != model.ClaimStatusApproved || approved.FinderFeedback != "See you at noon" {
		t.Errorf("unexpected approved claim: %+v", approved)
	}

	var matched model.Item
	env.call(t, "GET", fmt.Sprintf("/api/items/%d", item.ID), "", nil, &matched)
	if matched.Status != model.ItemStatusMatched {
		t.Errorf("expected item MATCHED after approval, got %s", matched.Status)
	}

	if status := env.call(t, "PUT", decide, finderToken, map[string]string{"status": "REJECTED"}, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for re-deciding, got %d", status)
	}
	if status := env.call(t, "PUT", "/api/claims/9999", finderToken, map[string]string{"status": "REJECTED"}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown claim, got %d", status)
	}
	if status := env.call(t, "POST", "/api/claims", lateToken, map[string]any{"itemId": item.ID}, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for claim on matched item, got %d", status)
	}
}

func TestClaimOnLostItem(t *testing.T) {
	env := setupTestServer(t, Options{})
	_, ownerToken := env.createUser(t, "owner@example.com", model.RoleMember)
	_, otherToken := env.createUser(t, "other@example.com", model.RoleMember)

	lost := foundItem()
	lost["type"] = "LOST"
	var item model.Item
	env.call(t, "POST", "/api/items", ownerToken, lost, &item)

	var body map[string]string
	if status := env.call(t, "POST", "/api/claims", otherToken, map[string]any{"itemId": item.ID}, &body); status != http.StatusBadRequest {
		t.Errorf("expected 400 for claim on LOST item, got %d", status)
	}
	if body["error"] != "can only claim found items" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}

func TestMatchesEndpoint(t *testing.T) {
	env := setupTestServer(t, Options{MatchCacheTTL: time.Minute})
	_, token := env.createUser(t, "owner@example.com", model.RoleMember)

	lost := foundItem()
	lost["type"] = "LOST"
	var source model.Item
	env.call(t, "POST", "/api/items", token, lost, &source)
	path := fmt.Sprintf("/api/items/%d/matches", source.ID)

	var matches []model.Item
	if status := env.call(t, "GET", path, token, nil, &matches); status != http.StatusOK || len(matches) != 0 {
		t.Fatalf("expected no matches, got %d (status %d)", len(matches), status)
	}

	// A new item must not be hidden by the cached empty result.
	var candidate model.Item
	env.call(t, "POST", "/api/items", token, foundItem(), &candidate)
	if status := env.call(t, "GET", path, token, nil, &matches); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(matches) != 1 || matches[0].ID != candidate.ID {
		t.Errorf("expected candidate %d, got %+v", candidate.ID, matches)
	}

	if status := env.call(t, "GET", "/api/items/9999/matches", token, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown item, got %d", status)
	}
}

func TestAdminRoutes(t *testing.T) {
	env := setupTestServer(t, Options{})
	_, adminToken := env.createUser(t, "admin@example.com", model.RoleAdmin)
	member, memberToken := env.createUser(t, "member@example.com", model.RoleMember)

	if status := env.call(t, "GET", "/api/admin/users", memberToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for member, got %d", status)
	}
	var users []model.User
	if status := env.call(t, "GET", "/api/admin/users", adminToken, nil, &users); status != http.StatusOK || len(users) != 2 {
		t.Fatalf("expected 2 users, got %d (status %d)", len(users), status)
	}

	var item model.Item
	env.call(t, "POST", "/api/items", memberToken, foundItem(), &item)

	suspicious := fmt.Sprintf("/api/admin/items/%d/suspicious", item.ID)
	var flagged, cleared model.Item
	env.call(t, "PUT", suspicious, adminToken, nil, &flagged)
	env.call(t, "PUT", suspicious, adminToken, nil, &cleared)
	if !flagged.IsSuspicious || cleared.IsSuspicious {
		t.Errorf("expected flag to toggle on then off, got %v then %v", flagged.IsSuspicious, cleared.IsSuspicious)
	}
	if cleared.Status != item.Status || cleared.Category != item.Category {
		t.Errorf("toggle changed status or category: %+v", cleared)
	}

	var blocked model.User
	if status := env.call(t, "PUT", fmt.Sprintf("/api/admin/users/%d/block", member.ID), adminToken, nil, &blocked); status != http.StatusOK || !blocked.IsBlocked {
		t.Fatalf("expected member to be blocked, got %+v (status %d)", blocked, status)
	}
	var errBody map[string]string
	if status := env.call(t, "GET", "/api/items/mine", memberToken, nil, &errBody); status != http.StatusUnauthorized || errBody["error"] != "account blocked" {
		t.Errorf("expected blocked member to be rejected, got %d %v", status, errBody)
	}
	if status := env.call(t, "POST", "/api/auth/login", "", map[string]string{"email": member.Email, "password": testPassword}, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for blocked login, got %d", status)
	}
	if status := env.call(t, "PUT", "/api/admin/users/9999/block", adminToken, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", status)
	}

	var msg map[string]string
	if status := env.call(t, "DELETE", fmt.Sprintf("/api/admin/items/%d", item.ID), adminToken, nil, &msg); status != http.StatusOK {
		t.Fatalf("expected 200 from admin delete, got %d", status)
	}
	if msg["message"] != "Item removed by admin" {
		t.Errorf("unexpected message: %v", msg)
	}
	if status := env.call(t, "DELETE", fmt.Sprintf("/api/admin/items/%d", item.ID), adminToken, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for second delete, got %d", status)
	}
}

func TestUploadAndServeImage(t *testing.T) {
	env := setupTestServer(t, Options{PublicURL: "https://najdeno.example.com/"})
	_, token := env.createUser(t, "owner@example.com", model.RoleMember)

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var pngData bytes.Buffer
	png.Encode(&pngData, img)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "wallet.png")
	part.Write(pngData.Bytes())
	mw.Close()

	req, _ := http.NewRequest("POST", env.server.URL+"/api/upload", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from upload, got %d", resp.StatusCode)
	}

	var uploaded uploadResponse
	json.NewDecoder(resp.Body).Decode(&uploaded)
	const prefix = "https://najdeno.example.com/api/images/"
	if !strings.HasPrefix(uploaded.URL, prefix) || uploaded.ImageURL != uploaded.URL {
		t.Fatalf("unexpected upload response: %+v", uploaded)
	}

	imgResp, err := http.Get(env.server.URL + "/api/images/" + strings.TrimPrefix(uploaded.URL, prefix))
	if err != nil {
		t.Fatalf("fetching image: %v", err)
	}
	defer imgResp.Body.Close()
	if imgResp.StatusCode != http.StatusOK || imgResp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("expected stored JPEG, got %d %s", imgResp.StatusCode, imgResp.Header.Get("Content-Type"))
	}

	if status := env.call(t, "GET", "/api/images/9999", "", nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for missing image, got %d", status)
	}
}

func TestNotificationsWebSocket(t *testing.T) {
	env := setupTestServer(t, Options{})
	finder, finderToken := env.createUser(t, "finder@example.com", model.RoleMember)
	_, claimantToken := env.createUser(t, "claimant@example.com", model.RoleMember)

	var item model.Item
	env.call(t, "POST", "/api/items", finderToken, foundItem(), &item)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/notifications/ws?token=" + finderToken
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.registry.Connections(finder.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status := env.call(t, "POST", "/api/claims", claimantToken, map[string]any{"itemId": item.ID, "answers": []string{"mine"}}, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg notify.Message
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("reading notification: %v", err)
	}
	if !strings.Contains(msg.Message, item.Title) {
		t.Errorf("unexpected notification: %q", msg.Message)
	}

	// Without a token the upgrade is refused.
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.server.URL, "http")+"/api/notifications/ws", nil)
	if err == nil {
		t.Fatal("expected anonymous websocket to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous websocket, got %v", resp)
	}
}

func TestLoginRateLimit(t *testing.T) {
	env := setupTestServer(t, Options{LoginRate: 2})

	creds := map[string]string{"email": "nobody@example.com", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		if status := env.call(t, "POST", "/api/auth/login", "", creds, nil); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
		}
	}
	if status := env.call(t, "POST", "/api/auth/login", "", creds, nil); status != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := setupTestServer(t, Options{})

	resp, err := http.Get(env.server.URL + "/api/items")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}

	req, _ := http.NewRequest("GET", env.server.URL+"/api/items", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
}

func TestClientMessage(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		want     string
	}{
		{fmt.Errorf("item not found: %w", model.ErrNotFound), model.ErrNotFound, "item not found"},
		{model.ErrConflict, model.ErrConflict, "conflict"},
		{fmt.Errorf("outer: %w", fmt.Errorf("claim is already APPROVED: %w", model.ErrInvalidOperation)), model.ErrInvalidOperation, "outer: claim is already APPROVED"},
	}
	for _, tt := range tests {
		if got := clientMessage(tt.err, tt.sentinel); got != tt.want {
			t.Errorf("clientMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
