// Catalog API client with one-shot re-authentication
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

// DefaultSelectionName names selections the API returns without one.
const DefaultSelectionName = "Selection"

// CatalogService is the catalog and auth client.
//
// Track-bearing responses are normalized so every audio locator is absolute.
// Authenticated calls that fail with an expired credential are retried exactly
// once after refreshing the access token.
type CatalogService struct {
	api       *APIService
	creds     Credentials
	logger    *log.Logger
	refreshMu sync.Mutex
}

// NewCatalogService creates a catalog client. A nil creds uses [MemoryCredentials].
func NewCatalogService(api *APIService, creds Credentials, logger *log.Logger) *CatalogService {
	if api == nil {
		api = NewAPIService("", nil)
	}
	if creds == nil {
		creds = NewMemoryCredentials()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CatalogService{api: api, creds: creds, logger: shared.WithLogger(logger, "component", "catalog")}
}

// BaseURL returns the API origin used to resolve relative asset paths.
func (c *CatalogService) BaseURL() string {
	return c.api.BaseURL()
}

// Session returns the stored session, or nil when signed out.
func (c *CatalogService) Session(ctx context.Context) (*models.Session, error) {
	return c.creds.Load(ctx)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signupResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Result  *models.User `json:"result"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Signup registers an account. An empty username defaults to the local part of email.
func (c *CatalogService) Signup(ctx context.Context, email, password, username string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	var resp signupResponse
	if err := c.api.PostJSON(ctx, "/user/signup/", signupRequest{Email: email, Password: password, Username: username}, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return &models.User{Email: email, Username: username}, nil
	}
	return resp.Result, nil
}

// Login verifies the account, obtains a token pair and stores the session.
func (c *CatalogService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	body := loginRequest{Email: email, Password: password}

	var user models.User
	if err := c.api.PostJSON(ctx, "/user/login/", body, &user); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	var pair tokenPair
	if err := c.api.PostJSON(ctx, "/user/token/", body, &pair); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("%w: token response missing access token", shared.ErrAuthFailed)
	}

	session := &models.Session{
		Token:    NewToken(pair.Access, pair.Refresh),
		UserID:   models.FormatID(user.ID),
		Username: user.Username,
		Email:    user.Email,
	}
	if user.ID == 0 {
		session.UserID = TokenUserID(pair.Access)
	}

	if err := c.creds.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	c.logger.Infof("signed in as %s", describeSession(session))
	return session, nil
}

// Logout removes the stored session.
func (c *CatalogService) Logout(ctx context.Context) error {
	return c.creds.Clear(ctx)
}

// RefreshToken exchanges the stored refresh token for a new access token and stores it.
//
// Concurrent callers are serialized; a caller that waited behind a successful
// refresh reuses the newly stored token.
func (c *CatalogService) RefreshToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	session, err := c.creds.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.Token == nil || session.Token.RefreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	refresh := session.Token.RefreshToken
	var pair tokenPair
	if err := c.api.PostJSON(ctx, "/user/token/refresh/", map[string]string{"refresh": refresh}, &pair); err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if pair.Access == "" {
		return "", fmt.Errorf("%w: refresh response missing access token", shared.ErrRefreshFailed)
	}
	if pair.Refresh != "" {
		refresh = pair.Refresh
	}

	session.Token = NewToken(pair.Access, refresh)
	if err := c.creds.Save(ctx, session); err != nil {
		return "", fmt.Errorf("failed to store refreshed session: %w", err)
	}
	c.logger.Debug("access token refreshed")
	return pair.Access, nil
}

// accessToken returns the stored access token or [shared.ErrNotAuthenticated].
func (c *CatalogService) accessToken(ctx context.Context) (string, error) {
	session, err := c.creds.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.Token == nil || session.Token.AccessToken == "" {
		return "", shared.ErrNotAuthenticated
	}
	return session.Token.AccessToken, nil
}

// withReAuth runs fn with the current access token. If fn fails with an expired
// credential, the token is refreshed once and fn runs again; a second failure is final.
func (c *CatalogService) withReAuth(ctx context.Context, fn func(token string) error) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	err = fn(token)
	var apiErr *APIError
	if err == nil || !errors.As(err, &apiErr) || !apiErr.Expired() {
		return err
	}

	c.logger.Debug("credential rejected, refreshing", "status", apiErr.Status, "code", apiErr.Code)
	token, rerr := c.RefreshToken(ctx)
	if rerr != nil {
		return rerr
	}
	return fn(token)
}

// authed performs an authenticated request and fails on non-2xx statuses.
func (c *CatalogService) authed(ctx context.Context, method, path string) (*APIResponse, error) {
	var out *APIResponse
	err := c.withReAuth(ctx, func(token string) error {
		resp, err := c.api.Do(ctx, method, path, nil, token)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}

func (c *CatalogService) get(ctx context.Context, path string) (*APIResponse, error) {
	resp, err := c.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// FetchAllTracks returns the full catalog.
func (c *CatalogService) FetchAllTracks(ctx context.Context) ([]models.Track, error) {
	resp, err := c.get(ctx, "/catalog/track/all/")
	if err != nil {
		return nil, err
	}
	tracks, err := decodeTracks(resp.Body)
	if err != nil {
		return nil, err
	}
	return c.normalizeAll(tracks), nil
}

// FetchFavorites returns the signed-in user's liked tracks.
func (c *CatalogService) FetchFavorites(ctx context.Context) ([]models.Track, error) {
	resp, err := c.authed(ctx, http.MethodGet, "/catalog/track/favorite/all/")
	if err != nil {
		return nil, err
	}
	tracks, err := decodeTracks(resp.Body)
	if err != nil {
		return nil, err
	}
	return c.normalizeAll(tracks), nil
}

// SetFavorite likes a track for the signed-in user.
func (c *CatalogService) SetFavorite(ctx context.Context, trackID int) error {
	_, err := c.authed(ctx, http.MethodPost, favoritePath(trackID))
	return err
}

// UnsetFavorite removes a like for the signed-in user.
func (c *CatalogService) UnsetFavorite(ctx context.Context, trackID int) error {
	_, err := c.authed(ctx, http.MethodDelete, favoritePath(trackID))
	return err
}

func favoritePath(trackID int) string {
	return "/catalog/track/" + models.FormatID(trackID) + "/favorite/"
}

// FetchSelections lists curated selections.
func (c *CatalogService) FetchSelections(ctx context.Context) ([]models.Selection, error) {
	resp, err := c.get(ctx, "/catalog/selection/all")
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Data []models.Selection `json:"data"`
	}
	if err := resp.Decode(&wrapped); err == nil {
		if wrapped.Data == nil {
			return []models.Selection{}, nil
		}
		return wrapped.Data, nil
	}

	var bare []models.Selection
	if err := resp.Decode(&bare); err != nil {
		return nil, err
	}
	return bare, nil
}

// FetchSelection returns one selection by id.
func (c *CatalogService) FetchSelection(ctx context.Context, id int) (*models.Selection, error) {
	resp, err := c.get(ctx, "/catalog/selection/"+models.FormatID(id)+"/")
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrSelectionNotFound, id)
		}
		return nil, err
	}

	var wrapped struct {
		Data *models.Selection `json:"data"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return nil, fmt.Errorf("%w: %d", shared.ErrSelectionNotFound, id)
	}
	return wrapped.Data, nil
}

// FetchSelectionTracks fetches a selection and the catalog concurrently and resolves
// the selection's items in order. Unknown ids are dropped.
func (c *CatalogService) FetchSelectionTracks(ctx context.Context, id int) (*models.SelectionTracks, error) {
	var (
		wg        sync.WaitGroup
		selection *models.Selection
		all       []models.Track
		selErr    error
		allErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		selection, selErr = c.FetchSelection(ctx, id)
	}()
	go func() {
		defer wg.Done()
		all, allErr = c.FetchAllTracks(ctx)
	}()
	wg.Wait()

	if selErr != nil {
		return nil, selErr
	}
	if allErr != nil {
		return nil, allErr
	}

	byID := make(map[int]models.Track, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	tracks := make([]models.Track, 0, len(selection.Items))
	for _, itemID := range selection.Items {
		if t, ok := byID[itemID]; ok {
			tracks = append(tracks, t)
		}
	}

	name := selection.Name
	if name == "" {
		name = DefaultSelectionName
	}
	return &models.SelectionTracks{ID: selection.ID, Name: name, Tracks: tracks}, nil
}

// NormalizeTrack makes the track's audio locator absolute against the API origin.
func (c *CatalogService) NormalizeTrack(t models.Track) models.Track {
	t.AudioURL = NormalizeURL(c.api.BaseURL(), t.AudioURL)
	return t
}

func (c *CatalogService) normalizeAll(tracks []models.Track) []models.Track {
	for i := range tracks {
		tracks[i] = c.NormalizeTrack(tracks[i])
	}
	return tracks
}

// NormalizeURL prefixes locator with base unless it is empty or already absolute.
func NormalizeURL(base, locator string) string {
	if locator == "" || strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(locator, "/") {
		return base + locator
	}
	return base + "/" + locator
}

// decodeTracks accepts a bare array or a {"data": [...]} wrapper.
func decodeTracks(body []byte) ([]models.Track, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var tracks []models.Track
		if err := json.Unmarshal(body, &tracks); err != nil {
			return nil, fmt.Errorf("%w: failed to decode tracks: %v", shared.ErrAPIRequest, err)
		}
		return tracks, nil
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tracks: %v", shared.ErrAPIRequest, err)
	}

	var tracks []models.Track
	if err := json.Unmarshal(wrapped.Data, &tracks); err != nil || tracks == nil {
		return []models.Track{}, nil
	}
	return tracks, nil
}
