package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type employeeIDKey struct{}

// AuthRequired rejects requests without a verified access token. It must be
// mounted after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := claims[jwt.ClaimType].(string)
		if tokenType != jwt.TokenTypeAccess || !ok {
			response.Unauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// EmployeeRequired resolves the employee_id claim and stores it for
// EmployeeIDFromContext.
func EmployeeRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		employeeID, ok := claims[jwt.ClaimEmployeeID].(string)
		if !ok || employeeID == "" {
			response.Forbidden(w, "Employee account required")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), employeeIDKey{}, employeeID)))
	})
}

func EmployeeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(employeeIDKey{}).(string)
	return id, ok
}
