package services

import (
	"testing"
	"time"
)

func newTestJWTService() *JWTService {
	return &JWTService{
		AccessTokenDuration: time.Hour,
		jwtSecretKey:        "test-secret",
	}
}

func TestResolveAuthenticatedIdentity(t *testing.T) {
	jwtSvc := newTestJWTService()
	identitySvc := &IdentityService{jwtSvc: jwtSvc}

	token, err := jwtSvc.IssueToken("user-42")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	identity, err := identitySvc.Resolve("Bearer "+token, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Guest {
		t.Error("bearer token resolved as guest")
	}
	if identity.UserID != "user-42" {
		t.Errorf("user id = %q, want user-42", identity.UserID)
	}
}

func TestResolveAuthenticatedShadowsGuestHeader(t *testing.T) {
	jwtSvc := newTestJWTService()
	identitySvc := &IdentityService{jwtSvc: jwtSvc}

	token, _ := jwtSvc.IssueToken("user-42")

	identity, err := identitySvc.Resolve("Bearer "+token, "11111111-2222-4333-8444-555555555555")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Guest || identity.UserID != "user-42" {
		t.Errorf("identity = %+v, want authenticated user-42", identity)
	}
}

func TestResolveGuestIdentity(t *testing.T) {
	identitySvc := &IdentityService{jwtSvc: newTestJWTService()}

	tests := []struct {
		name    string
		guestID string
		wantErr bool
	}{
		{"valid v4 uuid", "11111111-2222-4333-8444-555555555555", false},
		{"not a uuid", "my-device", true},
		{"v7 uuid rejected", "01890a5d-ac96-774b-bcce-b302099a8057", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := identitySvc.Resolve("", tt.guestID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err == nil {
				if !identity.Guest {
					t.Error("guest header resolved as authenticated")
				}
				if identity.UserID != tt.guestID {
					t.Errorf("user id = %q, want %q", identity.UserID, tt.guestID)
				}
			}
		})
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	identitySvc := &IdentityService{jwtSvc: newTestJWTService()}

	tests := []struct {
		name       string
		authHeader string
	}{
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + mustSign(t, "other-secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := identitySvc.Resolve(tt.authHeader, ""); err == nil {
				t.Error("expected unauthorized error")
			}
		})
	}
}

func mustSign(t *testing.T, secret string) string {
	t.Helper()
	svc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: secret}
	token, err := svc.IssueToken("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestExtractTokenFromHeader(t *testing.T) {
	svc := newTestJWTService()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc123", "abc123", false},
		{"missing", "", "", true},
		{"no scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ExtractTokenFromHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}
