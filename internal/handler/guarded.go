package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warden-lab/warden/internal/resputil"
	"github.com/warden-lab/warden/internal/util"
	"github.com/warden-lab/warden/pkg/accesspolicy"
)

// resolveCallerScope builds the per-request scope for a guarded handler from
// the X-Warden-Project header. Returns false after writing the error
// response; on failure nothing is resolved and nothing leaks to the handler.
func resolveCallerScope(c *gin.Context, resolver *accesspolicy.Resolver) (*accesspolicy.CallerScope, bool) {
	scope, err := resolver.ResolveScope(c, util.CallerProject(c))
	if err != nil {
		var unknown *accesspolicy.UnknownProjectError
		if errors.As(err, &unknown) {
			resputil.HTTPError(c, http.StatusNotFound, unknown.Error(), resputil.UnknownProject)
			return nil, false
		}
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return nil, false
	}
	return scope, true
}

// respondWriteError distinguishes policy denials (stable error kind, normal
// control flow for callers) from infrastructure failures.
func respondWriteError(c *gin.Context, err error) {
	var crossProject *accesspolicy.CrossProjectWriteError
	var missingOwner *accesspolicy.MissingOwnerError
	if errors.As(err, &crossProject) || errors.As(err, &missingOwner) {
		resputil.HTTPError(c, http.StatusForbidden, err.Error(), resputil.WriteDenied)
		return
	}
	resputil.Error(c, err.Error(), resputil.NotSpecified)
}
