package contracts

import (
	"smartrentals/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Handler mounts a feature's routes. Staff-only routes are wrapped with auth.
type Handler interface {
	RegisterRoutes(*httprouter.Router, *middleware.StaffAuth)
}
