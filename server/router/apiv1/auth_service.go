package apiv1

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/store"
)

const (
	accessTokenDuration = 7 * 24 * time.Hour

	userIDContextKey = "user-id"
	roleContextKey   = "user-role"
)

type claimsWithRole struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// RegisterUser creates (or re-fetches) the account for an email and
// returns a token. A password is optional; campus reporters usually
// identify by email only.
func (s *APIV1Service) RegisterUser(c echo.Context) error {
	ctx := c.Request().Context()
	request := &RegisterRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Name == "" {
		return errorResponse(c, errs.Validationf("name", "required"))
	}

	user, err := s.Store.GetOrCreateUser(ctx, &store.User{
		ID:    uuid.NewString(),
		Email: request.Email,
		Name:  request.Name,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	if request.Password != "" && user.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return errorResponse(c, err)
		}
		if err := s.Store.UpdateUserPassword(ctx, user.ID, string(hash)); err != nil {
			return errorResponse(c, err)
		}
	}

	token, err := s.signToken(user)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, &AuthResponse{Token: token, User: convertUser(user)})
}

// Login authenticates by email, checking the password only when the
// account has one set.
func (s *APIV1Service) Login(c echo.Context) error {
	ctx := c.Request().Context()
	request := &LoginRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))
	user, err := s.Store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		return errorResponse(c, err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
	}
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "wrong password")
		}
	}

	token, err := s.signToken(user)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, &AuthResponse{Token: token, User: convertUser(user)})
}

func (s *APIV1Service) signToken(user *store.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claimsWithRole{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenDuration)),
		},
	})
	return token.SignedString([]byte(s.Secret))
}

// AuthMiddleware requires a valid bearer token and stashes the caller's
// identity on the request context.
func (s *APIV1Service) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		tokenClaims := &claimsWithRole{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), tokenClaims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errs.Validationf("token", "unexpected signing method %v", token.Header["alg"])
			}
			return []byte(s.Secret), nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.Set(userIDContextKey, tokenClaims.Subject)
		c.Set(roleContextKey, tokenClaims.Role)
		return next(c)
	}
}

// OfficeMiddleware restricts an endpoint to office staff and admins.
func (s *APIV1Service) OfficeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(roleContextKey).(string)
		if role != store.RoleOffice && role != store.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "office access required")
		}
		return next(c)
	}
}

func currentUserID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)
	return id
}

func convertUser(user *store.User) *User {
	return &User{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
}
