package utils

import (
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieValue returns the named cookie's value or "".
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// GetUserAgent returns the User-Agent string from the request
func GetUserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}

// GetIP returns the client address without its port. X-Forwarded-For is only
// read when trustProxy is set, and then only its last entry, which is the one
// the proxy appended.
func GetIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			if i := strings.LastIndexByte(forwarded, ','); i >= 0 {
				forwarded = forwarded[i+1:]
			}
			if ip := strings.TrimSpace(forwarded); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// BearerToken extracts the credential from "Authorization: Bearer <token>",
// falling back to the access token cookie.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return CookieValue(r, AccessTokenCookie)
}

func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(refreshTTL.Seconds()),
	})
}

func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
			MaxAge:   -1,
		})
	}
}
