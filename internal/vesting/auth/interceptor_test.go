package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	claimMethod = "/vesting.v1.VestingService/ClaimTokens"
	statsMethod = "/vesting.v1.VestingService/GetDashboardStats"
)

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func TestAuthInterceptor(t *testing.T) {
	const (
		validSecret   = "test-secret"
		invalidSecret = "wrong-secret"
		identity      = "alice"
	)

	generateToken := func(secret string, expiresAt time.Time) string {
		return signed(t, jwt.MapClaims{"sub": identity, "exp": expiresAt.Unix()}, secret)
	}

	tests := []struct {
		name         string
		fullMethod   string
		token        string
		wantError    bool
		expectedErr  codes.Code
		wantIdentity bool
	}{
		{
			name:         "protected method valid token",
			fullMethod:   claimMethod,
			token:        generateToken(validSecret, time.Now().Add(time.Hour)),
			expectedErr:  codes.OK,
			wantIdentity: true,
		},
		{
			name:        "protected method invalid token",
			fullMethod:  claimMethod,
			token:       generateToken(invalidSecret, time.Now().Add(time.Hour)),
			wantError:   true,
			expectedErr: codes.Unauthenticated,
		},
		{
			name:        "protected method expired token",
			fullMethod:  claimMethod,
			token:       generateToken(validSecret, time.Now().Add(-time.Hour)),
			wantError:   true,
			expectedErr: codes.Unauthenticated,
		},
		{
			name:        "protected method token without subject",
			fullMethod:  claimMethod,
			token:       signed(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, validSecret),
			wantError:   true,
			expectedErr: codes.Unauthenticated,
		},
		{
			name:        "protected method missing metadata",
			fullMethod:  claimMethod,
			wantError:   true,
			expectedErr: codes.Unauthenticated,
		},
		{
			name:        "unprotected method no token",
			fullMethod:  statsMethod,
			expectedErr: codes.OK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unaryInterceptor := NewAuthInterceptor(validSecret).Unary()

			ctx := context.Background()
			if tt.token != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "Bearer "+tt.token))
			}

			handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
				got, ok := IdentityFromContext(ctx)
				if tt.wantIdentity && (!ok || got != identity) {
					return nil, status.Error(codes.Unauthenticated, "identity not in context")
				}
				return "response", nil
			}

			resp, err := unaryInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.fullMethod}, handler)

			if tt.wantError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if status.Code(err) != tt.expectedErr {
					t.Errorf("expected error code %v, got %v", tt.expectedErr, status.Code(err))
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if resp != "response" {
				t.Error("handler response mismatch")
			}
		})
	}
}

func TestExtractTokenFromMetadata(t *testing.T) {
	tests := []struct {
		name        string
		metadata    metadata.MD
		wantToken   string
		wantErrCode codes.Code
	}{
		{
			name:        "valid authorization header",
			metadata:    metadata.Pairs("authorization", "Bearer valid-token"),
			wantToken:   "valid-token",
			wantErrCode: codes.OK,
		},
		{
			name:        "missing authorization header",
			metadata:    metadata.MD{},
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "malformed authorization header",
			metadata:    metadata.Pairs("authorization", "InvalidPrefix valid-token"),
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "empty bearer token",
			metadata:    metadata.Pairs("authorization", "Bearer "),
			wantErrCode: codes.Unauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := extractTokenFromMetadata(tt.metadata)

			if tt.wantErrCode != codes.OK {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if status.Code(err) != tt.wantErrCode {
					t.Errorf("expected error code %v, got %v", tt.wantErrCode, status.Code(err))
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, token)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	tokenString, err := GenerateToken("bob", "secret", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := validateToken(tokenString, "secret")
	if err != nil {
		t.Fatalf("generated token does not validate: %v", err)
	}
	if claims["sub"] != "bob" {
		t.Errorf("expected subject bob, got %v", claims["sub"])
	}

	if _, err := validateToken(tokenString, "other"); err == nil {
		t.Error("expected signature mismatch")
	}

	expired, _ := GenerateToken("bob", "secret", -time.Minute)
	if _, err := validateToken(expired, "secret"); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestIdentityFromContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("empty context must carry no identity")
	}

	got, ok := IdentityFromContext(WithIdentity(context.Background(), "carol"))
	if !ok || got != "carol" {
		t.Errorf("expected carol, got %q (%v)", got, ok)
	}
}

func TestNewAuthInterceptor(t *testing.T) {
	interceptor := NewAuthInterceptor("test-secret")

	if interceptor.jwtSecret != "test-secret" {
		t.Errorf("expected secret %q, got %q", "test-secret", interceptor.jwtSecret)
	}
	for _, method := range []string{
		"/vesting.v1.VestingService/CreateOrganization",
		"/vesting.v1.VestingService/InitializeVestingSchedule",
		"/vesting.v1.VestingService/RevokeVesting",
		"/vesting.v1.VestingService/GetEmployeeDashboard",
	} {
		if !interceptor.protectedMethods[method] {
			t.Errorf("missing protected method: %s", method)
		}
	}
	if interceptor.protectedMethods[statsMethod] {
		t.Errorf("%s must be public", statsMethod)
	}
}
