package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bank-chatbot-be/internal/dto"
	"bank-chatbot-be/internal/entity"
	"bank-chatbot-be/internal/repository/contract"
	"bank-chatbot-be/internal/repository/memory"
	"bank-chatbot-be/internal/repository/unitofwork"
	"bank-chatbot-be/pkg/contextcache"
	"bank-chatbot-be/pkg/genai"
	pktSession "bank-chatbot-be/pkg/session"
	"bank-chatbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeGenerator struct {
	result      *genai.GenerateResult
	err         error
	gotCache    string
	gotHistory  []*genai.ChatHistory
	gotMessages []string
}

func (g *fakeGenerator) GenerateContent(ctx context.Context, cacheName string, history []*genai.ChatHistory, message string) (*genai.GenerateResult, error) {
	g.gotCache = cacheName
	g.gotHistory = history
	g.gotMessages = append(g.gotMessages, message)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakePublisher struct {
	payloads [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeCustomerRepo struct {
	customer *entity.Customer
	err      error
}

func (r *fakeCustomerRepo) FindByRef(ctx context.Context, customerRef string) (*entity.Customer, error) {
	return r.customer, r.err
}

func (r *fakeCustomerRepo) Upsert(ctx context.Context, customer *entity.Customer) error {
	return nil
}

type fakeUow struct {
	customers *fakeCustomerRepo
}

func (u *fakeUow) Begin(ctx context.Context) error                         { return nil }
func (u *fakeUow) Commit() error                                           { return nil }
func (u *fakeUow) Rollback() error                                         { return nil }
func (u *fakeUow) ConversationRepository() contract.ConversationRepository { return nil }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository   { return nil }
func (u *fakeUow) CustomerRepository() contract.CustomerRepository         { return u.customers }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type chatServiceFixture struct {
	service   IChatService
	registry  *pktSession.Registry
	holder    *contextcache.Holder
	generator *fakeGenerator
	publisher *fakePublisher
	customers *fakeCustomerRepo
}

func newChatServiceFixture(requestLimit int) *chatServiceFixture {
	registry := pktSession.NewRegistry(memory.NewSessionRepository(time.Hour, time.Hour), nil)
	holder := contextcache.NewHolder()
	holder.Replace(&contextcache.Handle{
		Name:      "cachedContents/test",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	generator := &fakeGenerator{result: &genai.GenerateResult{
		Text:         "The monthly fee is 5 euros.",
		InputTokens:  100,
		OutputTokens: 20,
		TotalTokens:  120,
	}}
	publisher := &fakePublisher{}
	customers := &fakeCustomerRepo{}

	svc := NewChatService(
		registry,
		holder,
		generator,
		publisher,
		&fakeUowFactory{uow: &fakeUow{customers: customers}},
		requestLimit,
		time.Hour,
		nopLogger{},
	)

	return &chatServiceFixture{
		service:   svc,
		registry:  registry,
		holder:    holder,
		generator: generator,
		publisher: publisher,
		customers: customers,
	}
}

func TestConverseSuccess(t *testing.T) {
	f := newChatServiceFixture(10)

	res, err := f.service.Converse(context.Background(), &dto.ConverseRequest{
		UserID:  "cust-1",
		Message: "what is the monthly fee?",
	})

	assert.NoError(t, err)
	assert.Equal(t, "The monthly fee is 5 euros.", res.Reply)
	assert.Equal(t, int64(100), res.Usage.InputTokens)
	assert.Equal(t, int64(20), res.Usage.OutputTokens)
	assert.Equal(t, int64(120), res.Usage.TotalTokens)
	assert.Equal(t, 9, res.RemainingRequests)
	assert.Equal(t, "cachedContents/test", f.generator.gotCache)

	// Both sides of the turn are in session history now.
	sessions := f.service.ActiveSessions()
	assert.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].ConsumedRequests)
	assert.Equal(t, int64(100), sessions[0].InputTokens)
	assert.Equal(t, int64(20), sessions[0].OutputTokens)

	// The completed turn went to the audit pipeline.
	assert.Len(t, f.publisher.payloads, 1)
	var audit dto.ChatTurnAuditMessage
	assert.NoError(t, json.Unmarshal(f.publisher.payloads[0], &audit))
	assert.Equal(t, "cust-1", audit.UserID)
	assert.Equal(t, res.ConversationId, audit.ConversationId)
	assert.Equal(t, "what is the monthly fee?", audit.UserMessage)
	assert.Equal(t, "The monthly fee is 5 euros.", audit.ModelReply)
}

func TestConverseSendsHistory(t *testing.T) {
	f := newChatServiceFixture(10)

	_, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "first"})
	assert.NoError(t, err)
	_, err = f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "second"})
	assert.NoError(t, err)

	// The second call carries the first exchange as history.
	assert.Len(t, f.generator.gotHistory, 2)
	assert.Equal(t, "first", f.generator.gotHistory[0].Chat)
	assert.Equal(t, "The monthly fee is 5 euros.", f.generator.gotHistory[1].Chat)
}

func TestConverseEmptyMessage(t *testing.T) {
	f := newChatServiceFixture(10)

	_, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "   "})
	assert.Error(t, err)
	assert.Empty(t, f.generator.gotMessages)
}

func TestConverseBlockedCustomer(t *testing.T) {
	f := newChatServiceFixture(10)
	f.customers.customer = &entity.Customer{
		CustomerRef: "cust-1",
		Status:      entity.CustomerStatusBlocked,
	}

	_, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "hello"})
	assert.True(t, errors.Is(err, ErrCustomerBlocked))
	assert.Empty(t, f.generator.gotMessages)
}

func TestConversePolicyLookupFailureFailsOpen(t *testing.T) {
	f := newChatServiceFixture(10)
	f.customers.err = errors.New("directory down")

	_, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "hello"})
	assert.NoError(t, err)
}

func TestConverseCacheNotProvisioned(t *testing.T) {
	f := newChatServiceFixture(10)
	f.holder = contextcache.NewHolder()

	svc := NewChatService(
		f.registry, f.holder, f.generator, f.publisher,
		&fakeUowFactory{uow: &fakeUow{customers: f.customers}},
		10, time.Hour, nopLogger{},
	)

	_, err := svc.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "hello"})
	assert.True(t, errors.Is(err, contextcache.ErrNotInitialized))
}

func TestConverseGeneratorFailureLeavesSessionUntouched(t *testing.T) {
	f := newChatServiceFixture(10)
	f.generator.err = genai.ErrUnavailable

	_, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "hello"})
	assert.True(t, errors.Is(err, genai.ErrUnavailable))

	// The failed call consumed nothing.
	sessions := f.service.ActiveSessions()
	assert.Len(t, sessions, 1)
	assert.Equal(t, 0, sessions[0].ConsumedRequests)
	assert.Equal(t, int64(0), sessions[0].InputTokens)
	assert.Empty(t, f.publisher.payloads)
}

func TestConverseLimitThenFreshSession(t *testing.T) {
	f := newChatServiceFixture(2)

	first, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "q1"})
	assert.NoError(t, err)
	_, err = f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "q2"})
	assert.NoError(t, err)

	// Limit reached: the third call is refused and the session is evicted.
	_, err = f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "q3"})
	var limitErr *store.LimitExceededError
	assert.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.Limit)

	// The fourth call runs on a fresh conversation.
	fourth, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "q4"})
	assert.NoError(t, err)
	assert.NotEqual(t, first.ConversationId, fourth.ConversationId)
}

func TestActiveSessionsDuringConcurrentConverse(t *testing.T) {
	f := newChatServiceFixture(1000)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			// Busy rejections are fine; the session must stay consistent.
			_, _ = f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "hello"})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, info := range f.service.ActiveSessions() {
				assert.Equal(t, int64(info.ConsumedRequests)*100, info.InputTokens)
				assert.Equal(t, int64(info.ConsumedRequests)*20, info.OutputTokens)
			}
		}
	}()

	wg.Wait()
}

func TestEndSession(t *testing.T) {
	f := newChatServiceFixture(10)

	_, err := f.service.Converse(context.Background(), &dto.ConverseRequest{UserID: "cust-1", Message: "hello"})
	assert.NoError(t, err)
	assert.Len(t, f.service.ActiveSessions(), 1)

	f.service.EndSession("cust-1")
	assert.Empty(t, f.service.ActiveSessions())
}
