// Package admin serves the back-office JSON API used to manage the catalog,
// pricing rules and orders.
package admin

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	internaladmin "github.com/angelmondragon/storefront-backend/internal/admin"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type loginService interface {
	Login(ctx context.Context, req internaladmin.LoginRequest) (*internaladmin.LoginResponse, error)
}

// Login exchanges admin credentials for a bearer token.
func Login(svc loginService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req internaladmin.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp, err := svc.Login(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithAdmin(ctx, resp.Admin.Username), "admin.login")
		}
		responses.WriteSuccess(w, resp)
	}
}
