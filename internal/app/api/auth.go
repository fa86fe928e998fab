package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
)

const identityKey = "identity"

type claims struct {
	CashierID int64  `json:"cashier_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token issued by the staff-auth service and stores
// the resulting identity on the request context. The engine trusts the token
// contents; it only enforces ownership and role from here on.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, domain.ErrorResponse{
				Kind: "unauthorized", Msg: "missing bearer token",
			})
			return
		}

		var cl claims
		token, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || cl.CashierID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, domain.ErrorResponse{
				Kind: "unauthorized", Msg: "invalid token",
			})
			return
		}

		role := cl.Role
		if role == "" {
			role = domain.RoleCashier
		}
		c.Set(identityKey, domain.Identity{CashierID: cl.CashierID, Role: role})
		c.Next()
	}
}

func identity(c *gin.Context) domain.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(domain.Identity)
	return id
}
