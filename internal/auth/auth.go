package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"

	"github.com/RIGishan/text-toolkit/internal/config"
)

// DevOrigin is the origin every request is scoped to when authentication is
// bypassed in development.
const DevOrigin = "localhost"

const (
	stateCookie   = "oauthstate"
	idTokenCookie = "id_token"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type originKey struct{}

// WithOrigin returns a context scoped to origin.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext returns the origin set by RequireAuth.
func OriginFromContext(ctx context.Context) (string, bool) {
	origin, ok := ctx.Value(originKey{}).(string)
	return origin, ok && origin != ""
}

// Auth performs OpenID Connect login against an Okta tenant and resolves
// the storage origin of each request from the caller's email domain. All
// saved workflows, recipes and tool options are scoped to that origin.
type Auth struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	apiVerifier  *oidc.IDTokenVerifier
	allowed      []string
	logger       Logger
	authBypass   bool
}

// New creates an Auth from the application configuration. Outside of a DEV
// bypass it contacts the provider to build the token verifiers.
func New(ctx context.Context, cfg *config.Config, logger Logger) (*Auth, error) {
	a := &Auth{
		allowed:    normalizeDomains(cfg.Auth.AllowedDomains),
		logger:     logger,
		authBypass: cfg.IsDev() && cfg.DevModeBypass,
	}
	if a.authBypass {
		logger.Info("authentication bypassed", "origin", DevOrigin)
		return a, nil
	}

	if cfg.Auth.OktaDomain == "" || cfg.Auth.ClientID == "" ||
		cfg.Auth.ClientSecret == "" || cfg.Auth.RedirectURL == "" {
		return nil, errors.New("auth configuration is incomplete")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Auth.OktaDomain)
	if err != nil {
		return nil, err
	}

	a.oauth2Config = &oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       []string{ScopeOpenID, ScopeEmail},
	}
	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Auth.ClientID})
	// Access tokens carry the API audience rather than the client id.
	a.apiVerifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return a, nil
}

// LoginHandler starts the authorization code flow. The random state is
// kept in a cookie and checked by CallbackHandler.
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler completes the flow: it checks the state, exchanges the
// code and stores the verified ID token in a session cookie.
func (a *Auth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		a.logger.Error("token exchange failed", "error", err)
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token in token response", http.StatusInternalServerError)
		return
	}
	if _, err := a.verifier.Verify(r.Context(), rawIDToken); err != nil {
		http.Error(w, "failed to verify id token", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     idTokenCookie,
		Value:    rawIDToken,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RequireAuth accepts a bearer access token or the session cookie, and
// scopes the request to the caller's email domain. Requests without either
// are sent to the login page.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := DevOrigin
		if !a.authBypass {
			email, status, msg := a.authenticate(r)
			if status == http.StatusSeeOther {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if status != http.StatusOK {
				http.Error(w, msg, status)
				return
			}

			domain, ok := emailDomain(email)
			if !ok {
				http.Error(w, "invalid email format in token", http.StatusUnauthorized)
				return
			}
			if len(a.allowed) > 0 && !slices.Contains(a.allowed, domain) {
				if a.logger != nil {
					a.logger.Info("origin not allowed", "origin", domain)
				}
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			origin = domain
		}

		next.ServeHTTP(w, r.WithContext(WithOrigin(r.Context(), origin)))
	})
}

// authenticate returns the verified email claim, or the status to answer
// with when there is none.
func (a *Auth) authenticate(r *http.Request) (string, int, string) {
	var token *oidc.IDToken
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		t, err := a.apiVerifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return "", http.StatusUnauthorized, "invalid token: " + err.Error()
		}
		token = t
	} else {
		cookie, err := r.Cookie(idTokenCookie)
		if err != nil || a.verifier == nil {
			return "", http.StatusSeeOther, ""
		}
		t, err := a.verifier.Verify(r.Context(), cookie.Value)
		if err != nil {
			return "", http.StatusUnauthorized, "invalid token: " + err.Error()
		}
		token = t
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return "", http.StatusUnauthorized, "failed to parse token claims"
	}
	return claims.Email, http.StatusOK, ""
}

// LogoutHandler clears the session cookie and redirects to the home page.
func (a *Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   idTokenCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func emailDomain(email string) (string, bool) {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "", false
	}
	return strings.ToLower(domain), true
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
