package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"studybuddy/middleware"
	"studybuddy/models"
	"studybuddy/services/user"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	Service      user.UserService
	SessionTTL   time.Duration
	SecureCookie bool
}

func NewUserHandler(svc user.UserService, sessionTTL time.Duration, secureCookie bool) *UserHandler {
	return &UserHandler{Service: svc, SessionTTL: sessionTTL, SecureCookie: secureCookie}
}

// SignupHandler handles POST /users/signup (multipart form, optional "image" file).
func (h *UserHandler) SignupHandler(c *gin.Context) {
	courses, err := parseCourses(c.PostFormArray("courses"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	input := models.SignupInput{
		Username:   c.PostForm("username"),
		Password:   c.PostForm("password"),
		University: c.PostForm("university"),
		Bio:        c.PostForm("bio"),
		Courses:    courses,
	}
	avatar, closeAvatar, err := formImage(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	defer closeAvatar()

	resp, err := h.Service.Signup(c.Request.Context(), input, avatar, clientInfo(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("User signed up", zap.String("username", resp.Username))
	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler handles POST /users/auth.
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.Service.Login(c.Request.Context(), req.Username, req.Password, clientInfo(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

// LogoutHandler handles GET /users/logout.
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), identity(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookieName, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// CheckLoggedInHandler reports whether the request carries a live session. It never fails.
func (h *UserHandler) CheckLoggedInHandler(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}
	id, err := h.Service.ResolveSession(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedIn": true, "username": id.Username})
}

func (h *UserHandler) InfoHandler(c *gin.Context) {
	u, err := h.Service.GetProfile(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// EditHandler handles POST /users/edit. Absent form fields are left unchanged.
func (h *UserHandler) EditHandler(c *gin.Context) {
	var update models.ProfileUpdate
	if v, ok := c.GetPostForm("university"); ok {
		update.University = &v
	}
	if v, ok := c.GetPostForm("bio"); ok {
		update.Bio = &v
	}
	if values, ok := c.GetPostFormArray("courses"); ok {
		courses, err := parseCourses(values)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		update.Courses = courses
		if update.Courses == nil {
			update.Courses = []string{}
		}
	}
	avatar, closeAvatar, err := formImage(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	defer closeAvatar()

	u, err := h.Service.UpdateProfile(c.Request.Context(), identity(c), update, avatar)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ImageHandler redirects to a user's avatar.
func (h *UserHandler) ImageHandler(c *gin.Context) {
	url, err := h.Service.AvatarURL(c.Request.Context(), c.Param("username"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if url == "" {
		utils.RespondError(c, utils.NotFound("user has no avatar"))
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *UserHandler) AvailabilityHandler(c *gin.Context) {
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.SetAvailable(c.Request.Context(), identity(c), *req.Available); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": *req.Available})
}

func (h *UserHandler) PostLocationHandler(c *gin.Context) {
	var req struct {
		Lat *float64 `json:"lat" binding:"required"`
		Lng *float64 `json:"lng" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.SetLocation(c.Request.Context(), identity(c), *req.Lat, *req.Lng); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location updated"})
}

func (h *UserHandler) AddReviewHandler(c *gin.Context) {
	var req struct {
		Reviews []models.Review `json:"reviews" binding:"required,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.AddReviews(c.Request.Context(), identity(c), req.Reviews); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": len(req.Reviews)})
}

func (h *UserHandler) PeersHandler(c *gin.Context) {
	peers, err := h.Service.Peers(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, peers)
}

func (h *UserHandler) FCMTokenHandler(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.SetFCMToken(c.Request.Context(), identity(c), req.Token); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token saved"})
}

func (h *UserHandler) SetViewBuddyHandler(c *gin.Context) {
	var req models.MatchRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.SetViewBuddy(c.Request.Context(), identity(c), req.Username); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewBuddy": req.Username})
}

func (h *UserHandler) GetViewBuddyHandler(c *gin.Context) {
	u, err := h.Service.GetViewBuddy(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookieName, token, int(h.SessionTTL/time.Second), "/", "", h.SecureCookie, true)
}

func clientInfo(c *gin.Context) user.ClientInfo {
	ip, ua := middleware.ClientInfo(c)
	return user.ClientInfo{IP: ip, UserAgent: ua}
}

// parseCourses accepts either one JSON array or repeated form values.
func parseCourses(values []string) ([]string, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var courses []string
		if err := json.Unmarshal([]byte(values[0]), &courses); err != nil {
			return nil, utils.InvalidInput("courses must be a JSON array of strings")
		}
		return courses, nil
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// formImage returns the optional "image" upload. The returned close func is always safe to call.
func formImage(c *gin.Context) (io.Reader, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, utils.InvalidInput("invalid image upload")
	}
	if fh.Size > maxAvatarBytes {
		return nil, noop, utils.InvalidInput("image must be at most 5 MB")
	}
	var f multipart.File
	if f, err = fh.Open(); err != nil {
		return nil, noop, utils.InvalidInput("invalid image upload")
	}
	return f, func() { f.Close() }, nil
}
