package handlers

import (
	"net/http"
	"projectcamp/auth"
	"projectcamp/services"
	"projectcamp/utils"
)

type sessionOptions struct {
	tokens     *auth.TokenIssuer
	secure     bool
	trustProxy bool
}

func (o sessionOptions) setCookies(w http.ResponseWriter, pair auth.TokenPair) {
	utils.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, o.tokens.AccessTokenExpiry, o.tokens.RefreshTokenExpiry, o.secure)
}

func (o sessionOptions) clientMeta(r *http.Request) services.ClientMeta {
	return services.ClientMeta{UserAgent: utils.GetUserAgent(r), IPAddress: utils.GetIP(r, o.trustProxy)}
}

// callerID is only used behind the guard, which always sets it.
func callerID(r *http.Request) string {
	id, _ := UserIDFrom(r.Context())
	return id
}

// refreshTokenFrom prefers the cookie and falls back to a JSON body field.
func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, error) {
	if token := utils.CookieValue(r, utils.RefreshTokenCookie); token != "" {
		return token, nil
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		return "", err
	}
	return body.RefreshToken, nil
}

func RegisterUser(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := authService.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"user": user},
		"User registered successfully and verification email has been sent on your email")
}

func Login(w http.ResponseWriter, r *http.Request, authService *services.AuthService, opts sessionOptions) {
	var in services.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := authService.Login(r.Context(), in, opts.clientMeta(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.setCookies(w, result.Tokens)
	respond(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	}, "User logged in successfully")
}

func Logout(w http.ResponseWriter, r *http.Request, authService *services.AuthService, opts sessionOptions) {
	refreshToken, err := refreshTokenFrom(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authService.Logout(r.Context(), callerID(r), refreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	utils.ClearAuthCookies(w, opts.secure)
	respond(w, http.StatusOK, empty, "User logged out")
}

func CurrentUser(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	user, err := authService.CurrentUser(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, "Current user fetched successfully")
}

func VerifyEmail(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	if err := authService.VerifyEmail(r.Context(), r.PathValue("verificationToken")); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"isEmailVerified": true}, "Email is verified")
}

func ResendEmailVerification(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	if err := authService.ResendEmailVerification(r.Context(), callerID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, empty, "Mail has been sent to your email ID")
}

func RefreshToken(w http.ResponseWriter, r *http.Request, authService *services.AuthService, opts sessionOptions) {
	refreshToken, err := refreshTokenFrom(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := authService.Refresh(r.Context(), refreshToken, opts.clientMeta(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.setCookies(w, result.Tokens)
	respond(w, http.StatusOK, map[string]string{
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	}, "Access token refreshed")
}

func ForgotPassword(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := authService.ForgotPassword(r.Context(), body.Email); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, empty, "Password reset mail has been sent on your mail id")
}

func ResetPassword(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	var body struct {
		Password    string `json:"password"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	password := body.Password
	if password == "" {
		password = body.NewPassword
	}
	if err := authService.ResetPassword(r.Context(), r.PathValue("resetToken"), password); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, empty, "Password reset successfully")
}

func ChangePassword(w http.ResponseWriter, r *http.Request, authService *services.AuthService) {
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := authService.ChangePassword(r.Context(), callerID(r), body.OldPassword, body.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, empty, "Password changed successfully")
}
