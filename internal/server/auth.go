package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
)

// Claims is the bearer token payload. The user id travels in "user_id",
// falling back to the registered subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 bearer tokens issued elsewhere.
type TokenVerifier struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify returns the user id carried by token.
func (v *TokenVerifier) Verify(token string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return uuid.Nil, fmt.Errorf("%w: unexpected issuer %q", common.ErrUnauthorized, claims.Issuer)
	}
	sub := claims.UserID
	if sub == "" {
		sub = claims.Subject
	}
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: token has no valid user id", common.ErrUnauthorized)
	}
	return userID, nil
}

// publicMethods serve shared data and need no token.
var publicMethods = map[string]bool{
	ReceiptsService_ListCategories_FullMethodName: true,
}

// AuthInterceptor authenticates calls on the receipts service and stores the
// user id on the context. Other services, such as health, pass through, as do
// the public methods.
func AuthInterceptor(v *TokenVerifier, logger *slog.Logger) grpc.UnaryServerInterceptor {
	prefix := "/" + ReceiptsServiceName + "/"
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) || publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		token, err := bearerToken(ctx)
		if err != nil {
			logger.Warn("auth.rejected", "method", info.FullMethod, "error", err)
			return nil, common.ToStatus(err)
		}
		userID, err := v.Verify(token)
		if err != nil {
			logger.Warn("auth.rejected", "method", info.FullMethod, "error", err)
			return nil, common.ToStatus(err)
		}
		return handler(common.WithUserID(ctx, userID), req)
	}
}

// RequestIDInterceptor tags the context with the caller's x-request-id or a fresh one.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		rid := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("x-request-id"); len(vals) > 0 {
				rid = vals[0]
			}
		}
		if rid == "" {
			rid = uuid.NewString()
		}
		return handler(common.WithRequestID(ctx, rid), req)
	}
}

func bearerToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: missing metadata", common.ErrUnauthorized)
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return "", fmt.Errorf("%w: missing authorization header", common.ErrUnauthorized)
	}
	scheme, token, found := strings.Cut(vals[0], " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.Join(common.ErrUnauthorized, errors.New("authorization must be a bearer token"))
	}
	return strings.TrimSpace(token), nil
}
