package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/auth"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/services"
	"github.com/nimasrn/property-marketplace/internal/stream"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type testServer struct {
	t      *testing.T
	router *xhttp.Router
	tokens *auth.Tokens
}

func newTestServer(t *testing.T, h Handlers) *testServer {
	t.Helper()
	tokens := auth.NewTokens("test-secret", "marketplace", time.Hour)
	r := xhttp.CreateDefaultRouter()
	Register(r, tokens, h)
	return &testServer{t: t, router: r, tokens: tokens}
}

func (s *testServer) token(id uuid.UUID, role model.Role) string {
	s.t.Helper()
	raw, err := s.tokens.Issue(id, role)
	require.NoError(s.t, err)
	return raw
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func (s *testServer) do(method, path, token string, body any) *xhttp.RequestCtx {
	s.t.Helper()
	var raw []byte
	switch b := body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(s.t, err)
	}
	ctx := setupTestContext(method, path, raw)
	if token != "" {
		ctx.Request.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	s.router.Handler(ctx)
	return ctx
}

func decode(t *testing.T, ctx *xhttp.RequestCtx, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), dst), string(ctx.Response.Body()))
}

func errorBody(t *testing.T, ctx *xhttp.RequestCtx) string {
	t.Helper()
	var body map[string]string
	decode(t, ctx, &body)
	return body["error"]
}

func TestLeadHandler_ExpressInterest(t *testing.T) {
	buyer := uuid.New()
	propertyID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(MockLeadService)
		s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})
		lead := &model.PropertyLead{ID: uuid.New(), PropertyID: propertyID, BuyerID: buyer}
		svc.On("ExpressInterest", mock.Anything, propertyID, buyer).
			Return(&services.InterestResult{Lead: lead}, nil)

		ctx := s.do("POST", "/api/buyer/interested-properties", s.token(buyer, model.RoleBuyer),
			map[string]string{"propertyId": propertyID.String()})

		assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
		var out services.InterestResult
		decode(t, ctx, &out)
		assert.Equal(t, lead.ID, out.Lead.ID)
		svc.AssertExpectations(t)
	})

	t.Run("restored answers 200", func(t *testing.T) {
		svc := new(MockLeadService)
		s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})
		svc.On("ExpressInterest", mock.Anything, propertyID, buyer).
			Return(&services.InterestResult{Lead: &model.PropertyLead{ID: uuid.New()}, Restored: true}, nil)

		ctx := s.do("POST", "/api/buyer/interested-properties", s.token(buyer, model.RoleBuyer),
			map[string]string{"propertyId": propertyID.String()})
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	})

	t.Run("validation", func(t *testing.T) {
		svc := new(MockLeadService)
		s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})
		token := s.token(buyer, model.RoleBuyer)

		ctx := s.do("POST", "/api/buyer/interested-properties", token, `{`)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.Equal(t, "invalid JSON body", errorBody(t, ctx))

		ctx = s.do("POST", "/api/buyer/interested-properties", token, map[string]string{"propertyId": "nope"})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.Equal(t, "field propertyId failed uuid", errorBody(t, ctx))

		ctx = s.do("POST", "/api/buyer/interested-properties", token, map[string]string{})
		assert.Equal(t, "field propertyId failed required", errorBody(t, ctx))

		svc.AssertNotCalled(t, "ExpressInterest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockLeadService)
		s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})

		ctx := s.do("POST", "/api/buyer/interested-properties", "", map[string]string{"propertyId": propertyID.String()})
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("service errors keep their status", func(t *testing.T) {
		svc := new(MockLeadService)
		s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})
		svc.On("ExpressInterest", mock.Anything, propertyID, buyer).
			Return(nil, apperr.NotFound("property not found")).Once()

		ctx := s.do("POST", "/api/buyer/interested-properties", s.token(buyer, model.RoleBuyer),
			map[string]string{"propertyId": propertyID.String()})
		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
		assert.Equal(t, "property not found", errorBody(t, ctx))
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		svc := new(MockLeadService)
		s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})
		svc.On("ExpressInterest", mock.Anything, propertyID, buyer).
			Return(nil, apperr.Internal(errors.New("pq: connection refused")))

		ctx := s.do("POST", "/api/buyer/interested-properties", s.token(buyer, model.RoleBuyer),
			map[string]string{"propertyId": propertyID.String()})
		assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
		assert.NotContains(t, errorBody(t, ctx), "pq")
	})
}

func TestLeadHandler_SellerRoutes(t *testing.T) {
	seller := uuid.New()
	leadID := uuid.New()
	svc := new(MockLeadService)
	s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})
	token := s.token(seller, model.RoleSeller)

	svc.On("ListSellerLeads", mock.Anything, seller, true, 10, 20).
		Return(&services.LeadPage{Items: []*model.LeadView{}, Total: 0}, nil)
	ctx := s.do("GET", "/api/seller/leads?includeCancelled=true&limit=10&offset=20", token, nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	notes := "called back"
	svc.On("UpdateLead", mock.Anything, leadID, seller, "meeting_scheduled", &notes).
		Return(&model.PropertyLead{ID: leadID, Status: model.StageMeetingScheduled}, nil)
	ctx = s.do("PUT", "/api/seller/leads", token, map[string]any{
		"leadId": leadID.String(),
		"status": "meeting_scheduled",
		"notes":  notes,
	})
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	svc.On("CancelInterest", mock.Anything, leadID, seller, false).
		Return(&model.PropertyLead{ID: leadID}, nil)
	ctx = s.do("PATCH", "/api/seller/leads", token, map[string]any{
		"leadId":            leadID.String(),
		"interestCancelled": false,
	})
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = s.do("PATCH", "/api/seller/leads", token, map[string]any{"leadId": leadID.String()})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), "interestCancelled is required")

	svc.On("DeleteLead", mock.Anything, leadID, seller).Return(services.ErrNotPropertyOwner)
	ctx = s.do("DELETE", "/api/seller/leads?leadId="+leadID.String(), token, nil)
	assert.Equal(t, apperr.HTTPStatus(services.ErrNotPropertyOwner), ctx.Response.StatusCode())

	ctx = s.do("DELETE", "/api/seller/leads", token, nil)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "leadId must be a UUID", errorBody(t, ctx))

	svc.AssertExpectations(t)
}

func TestLeadHandler_WithdrawAndConnections(t *testing.T) {
	buyer := uuid.New()
	agent := uuid.New()
	propertyID := uuid.New()
	svc := new(MockLeadService)
	s := newTestServer(t, Handlers{Leads: NewLeadHandler(svc)})

	svc.On("WithdrawInterest", mock.Anything, propertyID, buyer).Return(nil)
	ctx := s.do("DELETE", "/api/buyer/interested-properties/"+propertyID.String(), s.token(buyer, model.RoleBuyer), nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"success":true}`, string(ctx.Response.Body()))

	body := map[string]string{"buyerId": buyer.String(), "propertyId": propertyID.String()}
	ctx = s.do("POST", "/api/agent/connections", s.token(buyer, model.RoleBuyer), body)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	conn := &model.BuyerAgentConnection{ID: uuid.New(), BuyerID: buyer, AgentID: agent, PropertyID: propertyID}
	svc.On("CreateConnection", mock.Anything, agent, buyer, propertyID).Return(conn, nil)
	ctx = s.do("POST", "/api/agent/connections", s.token(agent, model.RoleAgent), body)
	assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	svc.AssertExpectations(t)
}

func TestPropertyHandler_SellerRoutes(t *testing.T) {
	seller := uuid.New()
	agent := uuid.New()
	id := uuid.New()
	svc := new(MockPropertyService)
	s := newTestServer(t, Handlers{Properties: NewPropertyHandler(svc)})
	token := s.token(seller, model.RoleSeller)

	in := services.PropertyInput{
		Title:    "Μεζονέτα",
		Price:    310000,
		Location: "Κηφισιά",
		AgentID:  &agent,
		Features: model.PropertyFeatures{Bedrooms: 3},
	}
	svc.On("Create", mock.Anything, seller, in).
		Return(&model.Property{ID: id, UserID: seller, Status: model.PropertyStatusPending}, nil)
	ctx := s.do("POST", "/api/seller/properties", token, map[string]any{
		"title":    "Μεζονέτα",
		"price":    310000,
		"location": "Κηφισιά",
		"agentId":  agent.String(),
		"features": map[string]any{"bedrooms": 3},
	})
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	var created model.Property
	decode(t, ctx, &created)
	assert.Equal(t, model.PropertyStatusPending, created.Status)

	ctx = s.do("POST", "/api/seller/properties", token, map[string]any{"title": "x", "price": -5})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "field price failed gte", errorBody(t, ctx))
	ctx = s.do("POST", "/api/seller/properties", token, map[string]any{"title": "x", "agentId": "nope"})
	assert.Equal(t, "field agentId failed uuid", errorBody(t, ctx))

	ctx = s.do("POST", "/api/seller/properties", s.token(uuid.New(), model.RoleBuyer), map[string]any{"title": "x"})
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	svc.On("Update", mock.Anything, id, seller, services.PropertyInput{Title: "Studio", Price: 1}).
		Return(nil, services.ErrNotListingOwner)
	ctx = s.do("PUT", "/api/seller/properties/"+id.String(), token, map[string]any{"title": "Studio", "price": 1})
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	svc.On("ListSellerProperties", mock.Anything, seller, 10, 0).
		Return(&services.PropertyPage{Items: []*model.Property{}, Total: 0}, nil)
	ctx = s.do("GET", "/api/seller/properties?limit=10", token, nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"items":[],"total":0}`, string(ctx.Response.Body()))

	svc.AssertExpectations(t)
}

func TestPropertyHandler_AdminModeration(t *testing.T) {
	admin := uuid.New()
	id := uuid.New()
	svc := new(MockPropertyService)
	s := newTestServer(t, Handlers{Properties: NewPropertyHandler(svc)})
	token := s.token(admin, model.RoleAdmin)
	base := "/api/admin/listings/" + id.String()

	for action, status := range map[string]model.PropertyStatus{
		"approve":     model.PropertyStatusApproved,
		"reject":      model.PropertyStatusRejected,
		"unavailable": model.PropertyStatusUnavailable,
	} {
		svc.On("SetStatus", mock.Anything, id, string(status)).
			Return(&model.Property{ID: id, Status: status}, nil).Once()
		ctx := s.do("PUT", base+"/"+action, token, nil)
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), action)
		var out model.Property
		decode(t, ctx, &out)
		assert.Equal(t, status, out.Status)
	}

	ctx := s.do("PUT", base+"/approve", s.token(uuid.New(), model.RoleSeller), nil)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
	ctx = s.do("PUT", "/api/admin/listings/nope/approve", token, nil)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	svc.On("SetStatus", mock.Anything, id, "approved").Return(nil, services.ErrPropertyNotFound).Once()
	ctx = s.do("PUT", base+"/approve", token, nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	svc.On("ListAdmin", mock.Anything, "pending", 0, 0).
		Return(&services.PropertyPage{Items: []*model.Property{{ID: id}}, Total: 1}, nil)
	ctx = s.do("GET", "/api/admin/listings?status=pending", token, nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var page services.PropertyPage
	decode(t, ctx, &page)
	assert.Equal(t, int64(1), page.Total)

	svc.On("ListAdmin", mock.Anything, "archived", 0, 0).Return(nil, services.ErrInvalidPropertyStatus)
	ctx = s.do("GET", "/api/admin/listings?status=archived", token, nil)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	svc.AssertExpectations(t)
}

func TestTransactionHandler_AdvanceStage(t *testing.T) {
	admin := uuid.New()
	id := uuid.New()
	svc := new(MockTransactionService)
	s := newTestServer(t, Handlers{Transactions: NewTransactionHandler(svc, stream.NewHub("test", 4))})
	path := "/api/admin/transactions/" + id.String() + "/stage"

	ctx := s.do("PUT", path, s.token(uuid.New(), model.RoleSeller), map[string]string{"stage": "MEETING_SCHEDULED"})
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	out := &model.TransactionWithProgress{
		Transaction:    &model.Transaction{ID: id, Stage: model.StageMeetingScheduled},
		EffectiveStage: model.StageMeetingScheduled,
	}
	svc.On("AdvanceStage", mock.Anything, model.TransactionRef{Origin: model.OriginTransaction, ID: id}, "meeting_scheduled", admin).
		Return(out, nil).Once()
	ctx = s.do("PUT", path, s.token(admin, model.RoleAdmin), map[string]string{"stage": "meeting_scheduled"})
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	svc.On("AdvanceStage", mock.Anything, model.TransactionRef{Origin: model.OriginLead, ID: id}, "bogus", admin).
		Return(nil, apperr.InvalidStage("bogus")).Once()
	ctx = s.do("PUT", path, s.token(admin, model.RoleAdmin), map[string]string{"stage": "bogus", "origin": "Lead"})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = s.do("PUT", path, s.token(admin, model.RoleAdmin), map[string]string{"stage": "MEETING_SCHEDULED", "origin": "listing"})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = s.do("PUT", "/api/admin/transactions/not-a-uuid/stage", s.token(admin, model.RoleAdmin), map[string]string{"stage": "MEETING_SCHEDULED"})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	svc.AssertExpectations(t)
}

func TestTransactionHandler_Lists(t *testing.T) {
	admin := uuid.New()
	buyer := uuid.New()
	svc := new(MockTransactionService)
	s := newTestServer(t, Handlers{Transactions: NewTransactionHandler(svc, stream.NewHub("test", 4))})

	svc.On("ListAdmin", mock.Anything, services.AdminListFilter{Limit: 5}).
		Return(&services.AdminListPage{Items: []*model.AdminListItem{{Kind: model.AdminItemLead, ID: uuid.New()}}, Total: 1}, nil)
	ctx := s.do("GET", "/api/admin/transactions?limit=5", s.token(admin, model.RoleAdmin), nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var page services.AdminListPage
	decode(t, ctx, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, model.AdminItemLead, page.Items[0].Kind)

	ctx = s.do("GET", "/api/admin/transactions", s.token(buyer, model.RoleBuyer), nil)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	svc.On("ListForUser", mock.Anything, buyer, 0, 0).Return([]*model.Transaction{}, int64(0), nil)
	ctx = s.do("GET", "/api/transactions", s.token(buyer, model.RoleBuyer), nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"items":[],"total":0}`, string(ctx.Response.Body()))

	svc.AssertExpectations(t)
}

func TestTransactionHandler_Stream(t *testing.T) {
	buyer := uuid.New()
	hub := stream.NewHub("test", 4)
	s := newTestServer(t, Handlers{Transactions: NewTransactionHandler(new(MockTransactionService), hub)})

	ctx := s.do("GET", "/api/admin/transactions/stream", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = s.do("GET", "/api/admin/transactions/stream", s.token(buyer, model.RoleBuyer), nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/event-stream", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "no-cache", string(ctx.Response.Header.Peek("Cache-Control")))
	assert.Equal(t, 1, hub.Count(buyer))

	hub.Close()
	ctx = s.do("GET", "/api/admin/transactions/stream", s.token(buyer, model.RoleBuyer), nil)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
}

func TestTransactionHandler_StreamThroughServerChain(t *testing.T) {
	buyer := uuid.New()
	hub := stream.NewHub("test", 4)
	defer hub.Close()

	tokens := auth.NewTokens("test-secret", "marketplace", time.Hour)
	engine := xhttp.CreateServer()
	Register(engine.Router, tokens, Handlers{Transactions: NewTransactionHandler(new(MockTransactionService), hub)})
	observed := make(chan int, 1)
	observe := func(_, _ string, status int, _ time.Duration) { observed <- status }
	for _, m := range xhttp.APIMiddlewares(observe, "*") {
		engine.Use(m)
	}
	require.NoError(t, engine.DoRouting())

	token, err := tokens.Issue(buyer, model.RoleBuyer)
	require.NoError(t, err)
	ctx := setupTestContext("GET", "/api/admin/transactions/stream", nil)
	ctx.Request.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)

	done := make(chan struct{})
	go func() {
		engine.Server.Handler(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("middleware chain did not return while the stream was open")
	}

	assert.Equal(t, fasthttp.StatusOK, <-observed)
	assert.Equal(t, "text/event-stream", string(ctx.Response.Header.ContentType()))
	assert.True(t, ctx.Response.IsBodyStream())
	assert.Equal(t, 1, hub.Count(buyer), "subscription stays open until the body writer runs")
}

func TestAppointmentHandler(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()
	propertyID := uuid.New()
	svc := new(MockAppointmentService)
	s := newTestServer(t, Handlers{Appointments: NewAppointmentHandler(svc)})

	settings := model.VisitSettings{
		PresenceType:   model.PresenceType("PLATFORM_ONLY"),
		SchedulingType: model.SchedulingType("buyer_proposal"),
	}
	svc.On("SetVisitSettings", mock.Anything, propertyID, seller, settings).
		Return(&model.VisitSettings{PropertyID: propertyID}, nil)
	ctx := s.do("PUT", "/api/seller/properties/"+propertyID.String()+"/visit-settings", s.token(seller, model.RoleSeller),
		map[string]string{"presenceType": "PLATFORM_ONLY", "schedulingType": "buyer_proposal"})
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	svc.On("GetVisitSettings", mock.Anything, propertyID).Return(nil, services.ErrVisitSettingsNotFound)
	ctx = s.do("GET", "/api/seller/properties/"+propertyID.String()+"/visit-settings", s.token(buyer, model.RoleBuyer), nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	svc.On("ProposeAppointment", mock.Anything, propertyID, buyer, "2026-11-02", "10:30").
		Return(nil, services.ErrNoVisitSettings).Once()
	ctx = s.do("POST", "/api/seller/properties/"+propertyID.String()+"/appointments", s.token(buyer, model.RoleBuyer),
		map[string]string{"date": "2026-11-02", "time": "10:30"})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	svc.On("SetAppointmentStatus", mock.Anything, "64f000000000000000000001", "accepted", seller).
		Return(&model.Appointment{ID: "64f000000000000000000001", Status: model.AppointmentAccepted}, nil)
	ctx = s.do("PUT", "/api/seller/appointments/64f000000000000000000001/status", s.token(seller, model.RoleSeller),
		map[string]string{"status": "accepted"})
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	svc.On("ListBuyerAppointments", mock.Anything, buyer).Return([]*model.Appointment{{ID: "a"}, {ID: "b"}}, nil)
	ctx = s.do("GET", "/api/buyer/appointments", s.token(buyer, model.RoleBuyer), nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var list listResponse[*model.Appointment]
	decode(t, ctx, &list)
	assert.Equal(t, int64(2), list.Total)

	svc.AssertExpectations(t)
}

func TestNotificationHandler(t *testing.T) {
	user := uuid.New()
	svc := new(MockNotificationService)
	s := newTestServer(t, Handlers{Notifications: NewNotificationHandler(svc)})
	token := s.token(user, model.RoleBuyer)

	svc.On("List", mock.Anything, model.NotificationFilter{RecipientID: user, UnreadOnly: true, Limit: 5}).
		Return(&services.NotificationPage{Items: []*model.Notification{}, Total: 3, Unread: 1}, nil)
	ctx := s.do("GET", "/api/notifications?unread=true&limit=5", token, nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"items":[],"total":3,"unread":1}`, string(ctx.Response.Body()))

	svc.On("MarkAllRead", mock.Anything, user).Return(int64(2), nil)
	ctx = s.do("PATCH", "/api/notifications/read-all", token, nil)
	assert.JSONEq(t, `{"updated":2}`, string(ctx.Response.Body()))

	id := uuid.New()
	svc.On("MarkRead", mock.Anything, id, user).Return(apperr.NotFound("notification not found"))
	ctx = s.do("PATCH", "/api/notifications/"+id.String()+"/read", token, nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	svc.On("DeleteAll", mock.Anything, user).Return(int64(4), nil)
	ctx = s.do("DELETE", "/api/notifications", token, nil)
	assert.JSONEq(t, `{"deleted":4}`, string(ctx.Response.Body()))

	svc.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	s := newTestServer(t, Handlers{Health: NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": ok})})
	ctx := s.do("GET", "/health", "", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok","redis":"ok"}}`, string(ctx.Response.Body()))

	s = newTestServer(t, Handlers{Health: NewHealthHandler(map[string]Pinger{"postgres": ok, "mongo": down})})
	ctx = s.do("GET", "/health", "", nil)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","mongo":"connection refused"}}`, string(ctx.Response.Body()))
}
