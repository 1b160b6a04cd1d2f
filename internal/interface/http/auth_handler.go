package http

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/auth"
)

// Register creates a password account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token into a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleLogin redirects to the consent screen with a PKCE challenge.
// An optional returnTo path is carried through to the post-login redirect.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "oauth_state_failed", "failed to start sign-in", err))
		return
	}
	target, err := h.authSvc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		fail(c, err)
		return
	}
	st := signInState{State: state, CodeVerifier: verifier, ReturnTo: storefrontPath(c.Query("returnTo"))}
	if err := h.setSignInCookie(c, st); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "oauth_state_failed", "failed to start sign-in", err))
		return
	}
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback completes sign-in and hands the tokens to the frontend in the URL fragment.
func (h *Handler) GoogleCallback(c *gin.Context) {
	stored, err := h.readSignInCookie(c)
	clearSignInCookie(c)
	if err != nil || stored.State != c.Query("state") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "oauth state mismatch", err))
		return
	}
	if msg := c.Query("error"); msg != "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", fmt.Sprintf("sign-in cancelled: %s", msg), nil))
		return
	}
	resp, err := h.authSvc.GoogleCallback(c.Request.Context(), c.Query("code"), stored.CodeVerifier)
	if err != nil {
		fail(c, err)
		return
	}
	if h.postLoginRedirect == "" {
		c.JSON(http.StatusOK, resp)
		return
	}
	fragment := url.Values{}
	fragment.Set("token", resp.Token)
	fragment.Set("refreshToken", resp.RefreshToken)
	if stored.ReturnTo != "" {
		fragment.Set("returnTo", stored.ReturnTo)
	}
	c.Redirect(http.StatusFound, h.postLoginRedirect+"#"+fragment.Encode())
}

// Me returns the session with its profile state.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.authSvc.Session(c.Request.Context(), claims))
}

// UpdateMe patches contact details.
func (h *Handler) UpdateMe(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.authSvc.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout revokes linked provider tokens. Access tokens simply expire.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), claims.UserID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadBill stores an electricity bill and points the profile at it.
func (h *Handler) UploadBill(c *gin.Context) {
	claims, ok := mustClaims(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file is required: %w", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(c, err)
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	stored, err := h.mediaSvc.UploadBill(c.Request.Context(), claims.UserID, fileHeader.Filename, data, mimeType)
	if err != nil {
		fail(c, err)
		return
	}
	user, err := h.authSvc.AttachBill(c.Request.Context(), claims.UserID, stored.URL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": stored, "user": user})
}
