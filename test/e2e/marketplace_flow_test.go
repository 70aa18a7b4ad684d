package e2e

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/auth"
	"github.com/nimasrn/property-marketplace/internal/dispatcher"
	"github.com/nimasrn/property-marketplace/internal/events"
	"github.com/nimasrn/property-marketplace/internal/handlers"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/queue"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/internal/services"
	"github.com/nimasrn/property-marketplace/internal/stream"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
	"github.com/nimasrn/property-marketplace/pkg/kafka"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/nimasrn/property-marketplace/test/fixtures"
	"github.com/nimasrn/property-marketplace/test/helpers"
)

const (
	updatesChannel = "e2e:updates"
	kafkaTopic     = "marketplace.transactions"
)

type memoryWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (w *memoryWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memoryWriter) Close() error { return nil }

func (w *memoryWriter) types() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.msgs))
	for _, m := range w.msgs {
		for _, h := range m.Headers {
			if h.Key == events.MetaType {
				out = append(out, string(h.Value))
			}
		}
	}
	return out
}

type TestEnvironment struct {
	DB         *pg.DB
	Redis      *miniredis.Miniredis
	Router     *xhttp.Router
	Tokens     *auth.Tokens
	Hub        *stream.Hub
	Dispatcher *dispatcher.Service
	Kafka      *memoryWriter
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	db := helpers.SetupTestDB(t)
	mr, adapter := helpers.SetupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	qcfg := queue.QueueConfig{
		Name:              "e2e:events",
		ConsumerGroup:     "dispatchers",
		ConsumerName:      "api",
		MaxRetries:        3,
		VisibilityTimeout: time.Second,
		PollInterval:      20 * time.Millisecond,
		EnableDLQ:         true,
	}
	q, err := queue.NewQueue(ctx, adapter, qcfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Stop(time.Second) })
	emitter := events.NewPublisher(q)

	users := repository.NewUserRepository(db)
	properties := repository.NewPropertyRepository(db)
	leads := repository.NewLeadRepository(db)
	connections := repository.NewConnectionRepository(db)
	txs := repository.NewTransactionRepository(db)
	notifications := repository.NewNotificationRepository(db)

	notifier := services.NewNotificationService(notifications, users, properties)
	leadService := services.NewLeadService(db, leads, connections, txs, properties, users, notifier, emitter)
	transactionService := services.NewTransactionService(db, txs, leads, connections, properties, notifier, emitter)

	hub := stream.NewHub("e2e", 32)
	t.Cleanup(hub.Close)
	go func() { _ = stream.NewBridge(adapter, updatesChannel, hub).Run(ctx) }()
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels(updatesChannel)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w := &memoryWriter{}
	processor := dispatcher.NewEventProcessor(
		dispatcher.NewIdempotencyService(adapter, dispatcher.DefaultIdempotencyConfig()),
		dispatcher.NewPubSubSink(stream.NewBridge(adapter, updatesChannel, nil)),
		dispatcher.NewKafkaSink(kafka.NewProducerWithWriter(w, kafkaTopic)),
	)
	dcfg := qcfg
	dcfg.ConsumerName = "dispatcher"
	svc := dispatcher.NewService(adapter, processor, dispatcher.Config{Queue: dcfg, Consumers: 1, Workers: 2})
	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)

	tokens := auth.NewTokens("e2e-secret", "marketplace", time.Hour)
	router := xhttp.CreateDefaultRouter()
	handlers.Register(router, tokens, handlers.Handlers{
		Leads:         handlers.NewLeadHandler(leadService),
		Transactions:  handlers.NewTransactionHandler(transactionService, hub),
		Notifications: handlers.NewNotificationHandler(notifier),
	})

	return &TestEnvironment{
		DB:         db,
		Redis:      mr,
		Router:     router,
		Tokens:     tokens,
		Hub:        hub,
		Dispatcher: svc,
		Kafka:      w,
	}
}

func (e *TestEnvironment) call(t *testing.T, method, path string, user *model.User, body any) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if user != nil {
		token, err := e.Tokens.Issue(user.ID, user.Role)
		require.NoError(t, err)
		ctx.Request.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		ctx.Request.SetBody(raw)
	}
	e.Router.Handler(ctx)
	return ctx
}

type frame struct {
	Type string                  `json:"type"`
	Data *model.TransactionEvent `json:"data"`
}

// nextUpdate skips frames until an update of the wanted event type arrives.
func nextUpdate(t *testing.T, sub *stream.Subscription, want model.EventType) *model.TransactionEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case raw, ok := <-sub.C:
			require.True(t, ok, "subscription closed")
			var f frame
			require.NoError(t, json.Unmarshal(raw, &f))
			if f.Type == "transaction_update" && f.Data != nil && f.Data.Type == want {
				return f.Data
			}
		case <-deadline:
			t.Fatalf("no %s update received", want)
			return nil
		}
	}
}

func TestMarketplaceFlow_InterestToStageUpdate(t *testing.T) {
	env := setupE2EEnvironment(t)

	seller := helpers.CreateTestUser(t, env.DB, model.RoleSeller, fixtures.SellerName)
	agent := helpers.CreateTestUser(t, env.DB, model.RoleAgent, fixtures.AgentName)
	buyer := helpers.CreateTestUser(t, env.DB, model.RoleBuyer, fixtures.BuyerName)
	admin := helpers.CreateTestUser(t, env.DB, model.RoleAdmin, fixtures.AdminName)
	property := helpers.CreateTestProperty(t, env.DB, seller.ID, &agent.ID, fixtures.PropertyTitle)

	buyerStream := env.Hub.Subscribe(buyer.ID)
	require.NotNil(t, buyerStream)
	defer buyerStream.Close()
	agentStream := env.Hub.Subscribe(agent.ID)
	require.NotNil(t, agentStream)
	defer agentStream.Close()

	// buyer expresses interest
	ctx := env.call(t, "POST", "/api/buyer/interested-properties", buyer, map[string]string{"propertyId": property.ID.String()})
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var interest services.InterestResult
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &interest))
	require.NotNil(t, interest.Transaction)
	txID := interest.Transaction.ID

	ev := nextUpdate(t, agentStream, model.EventInterestExpressed)
	assert.Equal(t, property.ID, ev.PropertyID)
	require.NotNil(t, ev.TransactionID)
	assert.Equal(t, txID, *ev.TransactionID)

	// the agent handles the listing, so the agent is notified
	ctx = env.call(t, "GET", "/api/notifications?unread=true", agent, nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var page services.NotificationPage
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &page))
	assert.Equal(t, int64(1), page.Unread)

	// only admins may move stages
	ctx = env.call(t, "PUT", "/api/admin/transactions/"+txID.String()+"/stage", seller, map[string]string{"stage": "DEPOSIT_PAID"})
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx = env.call(t, "PUT", "/api/admin/transactions/"+txID.String()+"/stage", admin, map[string]string{"stage": " deposit_paid "})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var advanced model.TransactionWithProgress
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &advanced))
	assert.Equal(t, model.StageDepositPaid, advanced.Stage)
	assert.Equal(t, model.StagePending, advanced.EffectiveStage, "still INTERESTED, so it reads as pending")
	require.Len(t, advanced.Progress, 1)

	ev = nextUpdate(t, buyerStream, model.EventStageAdvanced)
	assert.Equal(t, model.StageDepositPaid, ev.Stage)

	ctx = env.call(t, "GET", "/api/notifications", buyer, nil)
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &page))
	assert.Equal(t, int64(2), page.Total, "interest confirmation plus the stage change")

	// the admin list shows the transaction
	ctx = env.call(t, "GET", "/api/admin/transactions", admin, nil)
	var list services.AdminListPage
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, model.AdminItemTransaction, list.Items[0].Kind)
	assert.Equal(t, txID, list.Items[0].ID)

	assert.Eventually(t, func() bool {
		return len(env.Kafka.types()) == 2
	}, 3*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{string(model.EventInterestExpressed), string(model.EventStageAdvanced)}, env.Kafka.types())
}

func TestMarketplaceFlow_WithdrawAndRestore(t *testing.T) {
	env := setupE2EEnvironment(t)

	seller := helpers.CreateTestUser(t, env.DB, model.RoleSeller, fixtures.SellerName)
	buyer := helpers.CreateTestUser(t, env.DB, model.RoleBuyer, fixtures.BuyerName)
	property := helpers.CreateTestProperty(t, env.DB, seller.ID, nil, fixtures.PropertyTitle)

	sellerStream := env.Hub.Subscribe(seller.ID)
	require.NotNil(t, sellerStream)
	defer sellerStream.Close()

	ctx := env.call(t, "POST", "/api/buyer/interested-properties", buyer, map[string]string{"propertyId": property.ID.String()})
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	nextUpdate(t, sellerStream, model.EventInterestExpressed)

	ctx = env.call(t, "DELETE", "/api/buyer/interested-properties/"+property.ID.String(), buyer, nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	nextUpdate(t, sellerStream, model.EventInterestCancelled)

	ctx = env.call(t, "GET", "/api/buyer/interested-properties", buyer, nil)
	var mine services.LeadPage
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &mine))
	assert.Empty(t, mine.Items)

	// interest can be expressed again after a withdrawal
	ctx = env.call(t, "POST", "/api/buyer/interested-properties", buyer, map[string]string{"propertyId": property.ID.String()})
	require.Contains(t, []int{fasthttp.StatusCreated, fasthttp.StatusOK}, ctx.Response.StatusCode())

	ctx = env.call(t, "GET", "/api/seller/leads", seller, nil)
	var leads services.LeadPage
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &leads))
	require.Len(t, leads.Items, 1)
	assert.Equal(t, buyer.ID, leads.Items[0].Lead.BuyerID)
	assert.False(t, leads.Items[0].Lead.InterestCancelled)
}

func TestMarketplaceFlow_StreamNeedsToken(t *testing.T) {
	env := setupE2EEnvironment(t)
	buyer := helpers.CreateTestUser(t, env.DB, model.RoleBuyer, fixtures.BuyerName)

	ctx := env.call(t, "GET", "/api/admin/transactions/stream", nil, nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = env.call(t, "GET", "/api/admin/transactions/stream", buyer, nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, env.Hub.Count(buyer.ID))
	assert.Equal(t, 0, env.Hub.Count(uuid.New()))
}
