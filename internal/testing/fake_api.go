package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/skyplay/internal/models"
)

const fakeSigningKey = "skyplay-test"

// FakeAPI is an in-process catalog API backed by [httptest.Server].
//
// Access tokens are signed JWTs carrying user_id and exp claims. Calling
// [FakeAPI.ExpireAccess] rotates the valid access token so the next
// authenticated request fails with token_not_valid.
type FakeAPI struct {
	Server *httptest.Server

	mu          sync.Mutex
	user        models.User
	password    string
	tracks      []models.Track
	selections  []models.Selection
	favorites   []int
	access      string
	refresh     string
	issued      int
	wrapTracks  bool
	favoriteErr int
	calls       map[string]int
}

// NewFakeAPI starts a fake catalog API that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		user:     models.User{ID: 7, Username: "listener", Email: "listener@example.com"},
		password: "secret",
		refresh:  "refresh-1",
		calls:    make(map[string]int),
	}
	f.access = f.issue()
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server origin.
func (f *FakeAPI) URL() string { return f.Server.URL }

// User returns the account the fake accepts, with its password.
func (f *FakeAPI) User() (models.User, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, f.password
}

// SetTracks replaces the catalog. wrapped selects the {"data": [...]} response shape.
func (f *FakeAPI) SetTracks(tracks []models.Track, wrapped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = slices.Clone(tracks)
	f.wrapTracks = wrapped
}

// SetSelections replaces the curated selections.
func (f *FakeAPI) SetSelections(selections []models.Selection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selections = slices.Clone(selections)
}

// SetFavorites replaces the liked track ids.
func (f *FakeAPI) SetFavorites(ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites = slices.Clone(ids)
}

// Favorites returns the liked track ids.
func (f *FakeAPI) Favorites() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.favorites)
}

// FailFavorites makes favorite mutations respond with status (0 disables).
func (f *FakeAPI) FailFavorites(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favoriteErr = status
}

// Tokens returns the currently valid access and refresh tokens.
func (f *FakeAPI) Tokens() (access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access, f.refresh
}

// ExpireAccess invalidates the current access token.
func (f *FakeAPI) ExpireAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = f.issue()
}

// RevokeRefresh invalidates the refresh token.
func (f *FakeAPI) RevokeRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = "revoked"
}

// Calls returns how many times "METHOD /path" was requested.
func (f *FakeAPI) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method+" "+path]
}

func (f *FakeAPI) issue() string {
	f.issued++
	claims := jwt.MapClaims{
		"user_id": f.user.ID,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"jti":     strconv.Itoa(f.issued),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(fakeSigningKey))
	if err != nil {
		panic(err)
	}
	return signed
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[r.Method+" "+r.URL.Path]++
	path := r.URL.Path

	switch {
	case r.Method == http.MethodPost && path == "/user/signup/":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"result":  models.User{ID: 99, Username: body["username"], Email: body["email"]},
		})

	case r.Method == http.MethodPost && (path == "/user/login/" || path == "/user/token/"):
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != f.user.Email || body["password"] != f.password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Пользователь с таким email или паролем не найден"})
			return
		}
		if path == "/user/login/" {
			writeJSON(w, http.StatusOK, f.user)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": f.access, "refresh": f.refresh})

	case r.Method == http.MethodPost && path == "/user/token/refresh/":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh"] != f.refresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": f.access})

	case r.Method == http.MethodGet && path == "/catalog/track/all/":
		f.writeTracks(w, f.tracks)

	case r.Method == http.MethodGet && path == "/catalog/track/favorite/all/":
		if !f.authorized(w, r) {
			return
		}
		var liked []models.Track
		for _, t := range f.tracks {
			if slices.Contains(f.favorites, t.ID) {
				liked = append(liked, t)
			}
		}
		f.writeTracks(w, liked)

	case strings.HasPrefix(path, "/catalog/track/") && strings.HasSuffix(path, "/favorite/"):
		if !f.authorized(w, r) {
			return
		}
		if f.favoriteErr != 0 {
			writeJSON(w, f.favoriteErr, map[string]string{"message": "favorite failed"})
			return
		}
		id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(path, "/catalog/track/"), "/favorite/"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		switch r.Method {
		case http.MethodPost:
			if !slices.Contains(f.favorites, id) {
				f.favorites = append(f.favorites, id)
			}
		case http.MethodDelete:
			f.favorites = slices.DeleteFunc(f.favorites, func(v int) bool { return v == id })
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})

	case r.Method == http.MethodGet && path == "/catalog/selection/all":
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": f.selections})

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/catalog/selection/"):
		id, _ := strconv.Atoi(strings.Trim(strings.TrimPrefix(path, "/catalog/selection/"), "/"))
		for _, s := range f.selections {
			if s.ID == id {
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": s})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": fmt.Sprintf("selection %d not found", id)})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func (f *FakeAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") == "Bearer "+f.access {
		return true
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"detail": "Given token not valid for any token type",
		"code":   "token_not_valid",
	})
	return false
}

func (f *FakeAPI) writeTracks(w http.ResponseWriter, tracks []models.Track) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	if f.wrapTracks {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": tracks})
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
