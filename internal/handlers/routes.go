package handlers

import (
	"github.com/nimasrn/property-marketplace/internal/auth"
	"github.com/nimasrn/property-marketplace/internal/model"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
)

// Routes is the part of a router group the handlers register on.
type Routes interface {
	GET(path string, handler xhttp.RequestHandler)
	POST(path string, handler xhttp.RequestHandler)
	PUT(path string, handler xhttp.RequestHandler)
	PATCH(path string, handler xhttp.RequestHandler)
	DELETE(path string, handler xhttp.RequestHandler)
}

// guarded wraps every handler registered through it with mw.
type guarded struct {
	g  *xhttp.Group
	mw xhttp.MiddlewareFunc
}

func (s guarded) GET(path string, h xhttp.RequestHandler)    { s.g.GET(path, s.mw(h)) }
func (s guarded) POST(path string, h xhttp.RequestHandler)   { s.g.POST(path, s.mw(h)) }
func (s guarded) PUT(path string, h xhttp.RequestHandler)    { s.g.PUT(path, s.mw(h)) }
func (s guarded) PATCH(path string, h xhttp.RequestHandler)  { s.g.PATCH(path, s.mw(h)) }
func (s guarded) DELETE(path string, h xhttp.RequestHandler) { s.g.DELETE(path, s.mw(h)) }

type Handlers struct {
	Health        *HealthHandler
	Leads         *LeadHandler
	Properties    *PropertyHandler
	Transactions  *TransactionHandler
	Appointments  *AppointmentHandler
	Notifications *NotificationHandler
}

// Register mounts every route. Everything under /api needs a bearer token.
func Register(r *xhttp.Router, tokens *auth.Tokens, h Handlers) {
	if h.Health != nil {
		RegisterHealthRoutes(r, h.Health)
	}

	api := guarded{g: r.Group("/api"), mw: tokens.Authenticate}
	adminOnly := xhttp.MiddlewareFunc(auth.RequireRole(model.RoleAdmin))
	agentOnly := xhttp.MiddlewareFunc(auth.RequireRole(model.RoleAgent, model.RoleAdmin))
	sellerOnly := xhttp.MiddlewareFunc(auth.RequireRole(model.RoleSeller))

	if h.Leads != nil {
		RegisterLeadRoutes(api, h.Leads, agentOnly)
	}
	if h.Properties != nil {
		RegisterPropertyRoutes(api, h.Properties, sellerOnly, adminOnly)
	}
	if h.Transactions != nil {
		RegisterTransactionRoutes(api, h.Transactions, adminOnly)
	}
	if h.Appointments != nil {
		RegisterAppointmentRoutes(api, h.Appointments)
	}
	if h.Notifications != nil {
		RegisterNotificationRoutes(api, h.Notifications)
	}
}
