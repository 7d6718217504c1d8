package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/access"
	"github.com/mikepea/filebox/pkg/filebox/apierr"
	"github.com/mikepea/filebox/pkg/filebox/auth"
	"github.com/mikepea/filebox/pkg/filebox/database"
	"github.com/mikepea/filebox/pkg/filebox/models"
	"github.com/mikepea/filebox/pkg/filebox/storage"
	"github.com/mikepea/filebox/pkg/filebox/users"
	"gorm.io/gorm"
)

const testBaseURL = "http://files.test"

type testEnv struct {
	db     *gorm.DB
	users  *users.Service
	store  *storage.MemoryStorage
	files  *Service
	router *gin.Engine
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect("sqlite", ":memory:", 0)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	userSvc := users.NewService(db)
	store := storage.NewMemoryStorage(testBaseURL, time.Minute)
	svc := NewService(db, access.NewChecker(userSvc, true), store)

	r := gin.New()
	r.Use(auth.IdentityMiddleware())
	store.RegisterRoutes(r)
	api := r.Group("/api")
	NewHandler(svc).RegisterRoutes(api)

	return &testEnv{db: db, users: userSvc, store: store, files: svc, router: r}
}

func (e *testEnv) createUser(t *testing.T, tokenIdentifier string, orgIDs ...string) *models.User {
	ctx := context.Background()
	if _, err := e.users.Create(ctx, tokenIdentifier, "User "+tokenIdentifier, ""); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	for _, org := range orgIDs {
		if err := e.users.AddOrgID(ctx, tokenIdentifier, org); err != nil {
			t.Fatalf("Failed to add org: %v", err)
		}
	}
	user, _ := e.users.Resolve(ctx, tokenIdentifier)
	return user
}

func (e *testEnv) createFile(t *testing.T, owner *models.User, name, orgID string, fileType models.FileType) models.File {
	file := models.File{Name: name, OrgID: orgID, Type: &fileType, UserID: &owner.ID}
	if err := e.db.Create(&file).Error; err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return file
}

func (e *testEnv) do(t *testing.T, method, path, tokenIdentifier string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tokenIdentifier != "" {
		token, err := auth.GenerateToken(tokenIdentifier, "")
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) list(t *testing.T, tokenIdentifier, rawQuery string) []FileWithURL {
	resp := e.do(t, "GET", "/api/files?"+rawQuery, tokenIdentifier, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var files []FileWithURL
	if err := json.Unmarshal(resp.Body.Bytes(), &files); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	return files
}

func names(files []FileWithURL) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestGenerateUploadURL(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "iss|alice", "org1")

	resp := env.do(t, "POST", "/api/files/upload-url", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}

	resp = env.do(t, "POST", "/api/files/upload-url", "iss|alice", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var upload storage.Upload
	json.Unmarshal(resp.Body.Bytes(), &upload)
	if upload.StorageID == "" || upload.Method != http.MethodPut {
		t.Errorf("Unexpected upload: %+v", upload)
	}
	if upload.URL != testBaseURL+"/storage/"+upload.StorageID {
		t.Errorf("Unexpected upload URL %s", upload.URL)
	}

	var count int64
	env.db.Model(&models.File{}).Count(&count)
	if count != 0 {
		t.Errorf("Issuing an upload URL must not write files, found %d", count)
	}
}

func TestUploadThenCreateThenList(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "iss|alice", "org1")

	var upload storage.Upload
	json.Unmarshal(env.do(t, "POST", "/api/files/upload-url", "iss|alice", nil).Body.Bytes(), &upload)

	put, _ := http.NewRequest(upload.Method, strings.TrimPrefix(upload.URL, testBaseURL), strings.NewReader("%PDF-1.4"))
	put.Header.Set("Content-Type", "application/pdf")
	putResp := httptest.NewRecorder()
	env.router.ServeHTTP(putResp, put)
	if putResp.Code != http.StatusOK {
		t.Fatalf("Upload failed: %d %s", putResp.Code, putResp.Body.String())
	}

	resp := env.do(t, "POST", "/api/files", "iss|alice", map[string]interface{}{
		"name":         "contract.pdf",
		"file_id":      upload.StorageID,
		"content_type": "application/pdf",
		"org_id":       "org1",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	files := env.list(t, "iss|alice", "org_id=org1")
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(files))
	}
	f := files[0]
	if f.Type == nil || *f.Type != models.FileTypePDF {
		t.Errorf("Expected type pdf, got %v", f.Type)
	}
	if f.URL == nil || *f.URL != upload.URL {
		t.Errorf("Expected url %s, got %v", upload.URL, f.URL)
	}
}

func TestCreateFile(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	env.createUser(t, "iss|bob", "org2")

	tests := []struct {
		name       string
		caller     string
		body       map[string]interface{}
		wantStatus int
	}{
		{"unauthenticated", "", map[string]interface{}{"name": "a.csv", "org_id": "org1"}, http.StatusUnauthorized},
		{"not a member", "iss|bob", map[string]interface{}{"name": "a.csv", "org_id": "org1"}, http.StatusForbidden},
		{"unknown user", "iss|ghost", map[string]interface{}{"name": "a.csv", "org_id": "org1"}, http.StatusNotFound},
		{"missing name", "iss|alice", map[string]interface{}{"org_id": "org1"}, http.StatusBadRequest},
		{"missing org", "iss|alice", map[string]interface{}{"name": "a.csv"}, http.StatusBadRequest},
		{"bad type", "iss|alice", map[string]interface{}{"name": "a.exe", "type": "exe", "org_id": "org1"}, http.StatusBadRequest},
		{"bad content type", "iss|alice", map[string]interface{}{"name": "a.exe", "content_type": "application/x-msdownload", "org_id": "org1"}, http.StatusBadRequest},
		{"member", "iss|alice", map[string]interface{}{"name": "a.csv", "type": "csv", "org_id": "org1"}, http.StatusCreated},
		{"no file id or type", "iss|alice", map[string]interface{}{"name": "notes", "org_id": "org1"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, "POST", "/api/files", tt.caller, tt.body)
			if resp.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
		})
	}

	var files []models.File
	env.db.Order("id").Find(&files)
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(files))
	}
	for _, f := range files {
		if f.OrgID != "org1" || f.UserID == nil || *f.UserID != alice.ID {
			t.Errorf("Unexpected file %+v", f)
		}
	}
	if files[1].Type != nil || files[1].FileID != nil {
		t.Errorf("Expected optional fields to stay null, got %+v", files[1])
	}
}

func TestCreateFileUnauthenticatedMessage(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.files.Create(context.Background(), auth.Identity{}, CreateInput{Name: "a", OrgID: "org1"})
	if !errors.Is(err, apierr.ErrUnauthenticated) {
		t.Fatalf("Expected Unauthenticated, got %v", err)
	}
	if err.Error() != "you must be logged in to upload a file" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestListFilesScopedToOrg(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1", "org2")
	env.createUser(t, "iss|bob", "org2")

	env.createFile(t, alice, "first.csv", "org1", models.FileTypeCSV)
	env.createFile(t, alice, "other-org.csv", "org2", models.FileTypeCSV)
	env.createFile(t, alice, "second.pdf", "org1", models.FileTypePDF)

	got := names(env.list(t, "iss|alice", "org_id=org1"))
	if strings.Join(got, ",") != "first.csv,second.pdf" {
		t.Errorf("Expected org1 files in insertion order, got %v", got)
	}
	for _, f := range env.list(t, "iss|alice", "org_id=org1") {
		if f.OrgID != "org1" {
			t.Errorf("File from org %s leaked into org1 listing", f.OrgID)
		}
		if f.URL != nil {
			t.Errorf("Expected null url for file without blob, got %s", *f.URL)
		}
	}

	if files := env.list(t, "iss|bob", "org_id=org1"); len(files) != 0 {
		t.Errorf("Non-member should get an empty list, got %v", names(files))
	}
	if files := env.list(t, "", "org_id=org1"); len(files) != 0 {
		t.Errorf("Anonymous caller should get an empty list, got %v", names(files))
	}
	if files := env.list(t, "iss|alice", "org_id="); len(files) != 0 {
		t.Errorf("Empty org should give an empty list, got %v", names(files))
	}
}

func TestListFilesAnonymousReturnsEmptyArray(t *testing.T) {
	env := setupTestEnv(t)

	resp := env.do(t, "GET", "/api/files?org_id=org1", "", nil)
	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Errorf("Expected 200 [], got %d %s", resp.Code, resp.Body.String())
	}
}

func TestListFilesQuery(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	env.createFile(t, alice, "Report.csv", "org1", models.FileTypeCSV)
	env.createFile(t, alice, "summary.pdf", "org1", models.FileTypePDF)
	env.createFile(t, alice, "q3-REPORT.pdf", "org1", models.FileTypePDF)

	got := names(env.list(t, "iss|alice", "org_id=org1&query=report"))
	if strings.Join(got, ",") != "Report.csv,q3-REPORT.pdf" {
		t.Errorf("Expected case-insensitive matches, got %v", got)
	}
	if files := env.list(t, "iss|alice", "org_id=org1&query=missing"); len(files) != 0 {
		t.Errorf("Expected no matches, got %v", names(files))
	}
}

func TestListFilesTypeFilter(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	env.createFile(t, alice, "a.png", "org1", models.FileTypeImage)
	env.createFile(t, alice, "b.pdf", "org1", models.FileTypePDF)

	if got := names(env.list(t, "iss|alice", "org_id=org1&type=image")); strings.Join(got, ",") != "a.png" {
		t.Errorf("Expected only images, got %v", got)
	}
	if got := env.list(t, "iss|alice", "org_id=org1&type=all"); len(got) != 2 {
		t.Errorf("Expected all files, got %d", len(got))
	}
	if resp := env.do(t, "GET", "/api/files?org_id=org1&type=exe", "iss|alice", nil); resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad type, got %d", resp.Code)
	}
}

func TestToggleFavorite(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	env.createUser(t, "iss|bob", "org1")
	env.createUser(t, "iss|carol", "org2")
	file := env.createFile(t, alice, "report.csv", "org1", models.FileTypeCSV)
	env.createFile(t, alice, "other.csv", "org1", models.FileTypeCSV)
	path := "/api/files/" + strconv.Itoa(int(file.ID)) + "/favorite"

	resp := env.do(t, "POST", path, "iss|alice", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var fav FavoriteResponse
	json.Unmarshal(resp.Body.Bytes(), &fav)
	if !fav.Favorited {
		t.Errorf("First toggle should favorite")
	}

	if got := names(env.list(t, "iss|alice", "org_id=org1&favorites=true")); strings.Join(got, ",") != "report.csv" {
		t.Errorf("Expected favorites [report.csv], got %v", got)
	}
	// Favorites are per user
	if got := env.list(t, "iss|bob", "org_id=org1&favorites=true"); len(got) != 0 {
		t.Errorf("Bob should have no favorites, got %v", names(got))
	}

	resp = env.do(t, "POST", path, "iss|alice", nil)
	json.Unmarshal(resp.Body.Bytes(), &fav)
	if fav.Favorited {
		t.Errorf("Second toggle should unfavorite")
	}
	if got := env.list(t, "iss|alice", "org_id=org1&favorites=true"); len(got) != 0 {
		t.Errorf("Toggle pair should restore state, got %v", names(got))
	}

	if resp := env.do(t, "POST", path, "", nil); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
	if resp := env.do(t, "POST", path, "iss|carol", nil); resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
	if resp := env.do(t, "POST", "/api/files/9999/favorite", "iss|alice", nil); resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
	if resp := env.do(t, "POST", "/api/files/abc/favorite", "iss|alice", nil); resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestToggleFavoriteConcurrent(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	file := env.createFile(t, alice, "report.csv", "org1", models.FileTypeCSV)
	caller := auth.Identity{TokenIdentifier: "iss|alice"}

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.files.ToggleFavorite(context.Background(), caller, file.ID); err != nil {
				t.Errorf("ToggleFavorite failed: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	env.db.Model(&models.Favorite{}).Where("user_id = ? AND file_id = ?", alice.ID, file.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected one favorite after an odd number of toggles, got %d", count)
	}
}

func TestDeleteFile(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	env.createUser(t, "iss|carol", "org2")
	ctx := context.Background()

	upload, _ := env.store.NewUpload(ctx)
	env.store.Put(upload.StorageID, []byte("x"), "text/csv")
	file := env.createFile(t, alice, "report.csv", "org1", models.FileTypeCSV)
	env.db.Model(&file).Update("file_id", upload.StorageID)
	path := "/api/files/" + strconv.Itoa(int(file.ID))

	env.do(t, "POST", path+"/favorite", "iss|alice", nil)

	if resp := env.do(t, "DELETE", path, "", nil); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.Code)
	}
	if resp := env.do(t, "DELETE", path, "iss|carol", nil); resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}

	resp := env.do(t, "DELETE", path, "iss|alice", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}

	var count int64
	env.db.Model(&models.File{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected file to be deleted")
	}
	env.db.Model(&models.Favorite{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected favorites to be deleted with the file, got %d", count)
	}
	if url, _ := env.store.URL(ctx, upload.StorageID); url != nil {
		t.Errorf("Expected blob to be deleted")
	}

	resp = env.do(t, "DELETE", path, "iss|alice", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for deleted file, got %d", resp.Code)
	}
}

func TestDeleteFileNotFoundMessage(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "iss|alice", "org1")

	err := env.files.Delete(context.Background(), auth.Identity{TokenIdentifier: "iss|alice"}, 42)
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("Expected NotFound, got %v", err)
	}
	if err.Error() != "this file does not exist" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) URL(ctx context.Context, key string) (*string, error) {
	return nil, errors.New("storage unavailable")
}

func TestListFilesPropagatesStorageErrors(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "iss|alice", "org1")
	file := env.createFile(t, alice, "report.csv", "org1", models.FileTypeCSV)
	env.db.Model(&file).Update("file_id", "some-key")

	svc := NewService(env.db, access.NewChecker(env.users, true), failingStorage{})
	_, err := svc.List(context.Background(), auth.Identity{TokenIdentifier: "iss|alice"}, "org1", ListFilter{})
	if err == nil {
		t.Fatal("Expected storage error to propagate")
	}
	if apierr.Status(err) != http.StatusInternalServerError {
		t.Errorf("Expected an internal error, got %v", err)
	}
}
