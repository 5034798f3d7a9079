package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID *int64 `json:"userId"`
	Token  string `json:"token,omitempty"`
}

type meResponse struct {
	UserID            int64   `json:"userId"`
	Email             string  `json:"email"`
	XP                int     `json:"xp"`
	Level             int     `json:"level"`
	Streak            int     `json:"streak"`
	LastCompletedDate *string `json:"lastCompletedDate"`
}

func (h *handlers) setSessionCookie(c *gin.Context, token string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Cookie.Name, token, int(maxAge.Seconds()), "/", "", h.cfg.Cookie.Secure, true)
}

func (h *handlers) respondSession(c *gin.Context, sess *services.Session) {
	h.setSessionCookie(c, sess.Token, h.cfg.Cookie.MaxAge)
	id := sess.User.ID
	RespondOK(c, authResponse{UserID: &id, Token: sess.Token})
}

func (h *handlers) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	sess, err := h.cfg.Users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	h.respondSession(c, sess)
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	sess, err := h.cfg.Users.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, common.ErrorUnauthorized) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"userId": nil,
			"error":  APIError{Message: "invalid credentials", Code: CodeUnauthorized},
		})
		return
	}
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	h.respondSession(c, sess)
}

func (h *handlers) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Cookie.Name, "", -1, "/", "", h.cfg.Cookie.Secure, true)
	RespondOK(c, gin.H{"ok": true})
}

func (h *handlers) me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	u, err := h.cfg.Users.Me(c.Request.Context(), id.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	resp := meResponse{
		UserID: u.ID,
		Email:  u.Email,
		XP:     u.XP,
		Level:  u.Level,
		Streak: u.Streak,
	}
	if u.LastCompletedDate != nil {
		d := u.LastCompletedDate.Format(time.DateOnly)
		resp.LastCompletedDate = &d
	}
	RespondOK(c, resp)
}
