package bot

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidActivityToken is returned when the connector's webhook token
// fails validation
var ErrInvalidActivityToken = errors.New("invalid activity token")

// ErrTenantNotAllowed is returned when an activity arrives from a tenant
// other than the configured one
var ErrTenantNotAllowed = errors.New("activity tenant not allowed")

// botframeworkJWKSURL publishes the signing keys for tokens the Bot
// Framework service attaches to incoming webhook calls
const botframeworkJWKSURL = "https://login.botframework.com/v1/.well-known/keys"

// expectedIssuer is the issuer of connector service tokens
const expectedIssuer = "https://api.botframework.com"

// Authenticator validates Bot Framework service tokens on the incoming
// /api/messages webhook. The token audience must be the bot's app id.
type Authenticator struct {
	cfg        *config.BotConfig
	mu         sync.Mutex
	publicKeys map[string]*rsa.PublicKey
	lastUpdate time.Time
}

// NewAuthenticator creates a webhook authenticator for the bot registration
func NewAuthenticator(cfg *config.BotConfig) *Authenticator {
	return &Authenticator{
		cfg:        cfg,
		publicKeys: make(map[string]*rsa.PublicKey),
	}
}

// ValidateAuthHeader validates the Authorization header of a webhook
// request. An empty configured app id disables validation (local emulator).
func (a *Authenticator) ValidateAuthHeader(authHeader string) error {
	if a.cfg.AppId == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return fmt.Errorf("%w: missing bearer token", ErrInvalidActivityToken)
	}

	return a.validateToken(parts[1])
}

// ValidateTenant enforces the optional single-tenant restriction on an
// incoming activity. An empty configured tenant id allows any tenant.
func (a *Authenticator) ValidateTenant(activity *domain.Activity) error {
	if a.cfg.TenantId == "" {
		return nil
	}

	tenantID := ""
	if activity.ChannelData != nil && activity.ChannelData.Tenant != nil {
		tenantID = activity.ChannelData.Tenant.ID
	}
	if tenantID != a.cfg.TenantId {
		return fmt.Errorf("%w: %q", ErrTenantNotAllowed, tenantID)
	}
	return nil
}

func (a *Authenticator) validateToken(tokenString string) error {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActivityToken, err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return fmt.Errorf("%w: missing kid in header", ErrInvalidActivityToken)
	}

	publicKey, err := a.getPublicKey(kid)
	if err != nil {
		return fmt.Errorf("failed to get public key: %w", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidActivityToken, err)
	}

	iss, _ := claims.GetIssuer()
	if iss != expectedIssuer {
		return fmt.Errorf("%w: unexpected issuer %q", ErrInvalidActivityToken, iss)
	}

	aud, _ := claims.GetAudience()
	for _, audience := range aud {
		if audience == a.cfg.AppId {
			return nil
		}
	}
	return fmt.Errorf("%w: audience does not match bot app id", ErrInvalidActivityToken)
}

func (a *Authenticator) getPublicKey(kid string) (*rsa.PublicKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if key, exists := a.publicKeys[kid]; exists && time.Since(a.lastUpdate) < 24*time.Hour {
		return key, nil
	}

	if err := a.refreshPublicKeys(); err != nil {
		return nil, err
	}

	key, exists := a.publicKeys[kid]
	if !exists {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}
	return key, nil
}

// refreshPublicKeys fetches the Bot Framework signing keys.
// Caller must hold a.mu.
func (a *Authenticator) refreshPublicKeys() error {
	resp, err := http.Get(botframeworkJWKSURL)
	if err != nil {
		return fmt.Errorf("failed to fetch bot framework JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
			Kty string `json:"kty"`
			Use string `json:"use"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	newKeys := make(map[string]*rsa.PublicKey)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || key.Use != "sig" {
			continue
		}
		nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			continue
		}
		n := new(big.Int).SetBytes(nBytes)
		e := 0
		for _, b := range eBytes {
			e = e<<8 + int(b)
		}
		newKeys[key.Kid] = &rsa.PublicKey{N: n, E: e}
	}

	a.publicKeys = newKeys
	a.lastUpdate = time.Now()
	return nil
}
