package events

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received []*Event
	unsubscribe := bus.Subscribe(func(e *Event) {
		received = append(received, e)
	})

	bus.Emit(PriceUpdated, "markets", "", map[string]interface{}{"event_count": 3})
	require.Len(t, received, 1)
	assert.Equal(t, PriceUpdated, received[0].Type)
	assert.True(t, received[0].IsPublic())
	assert.False(t, received[0].Timestamp.IsZero())

	unsubscribe()
	unsubscribe() // idempotent

	bus.Emit(PriceUpdated, "markets", "", nil)
	assert.Len(t, received, 1)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBus_ConcurrentSubscribers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 5; i++ {
		bus.Subscribe(func(*Event) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit(PortfolioChanged, "portfolio", "alice", nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, count)
}

func TestManager_EmitTyped(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(func(e *Event) { got = e })

	manager.EmitTyped("portfolio", "alice", &TradeExecutedData{
		PositionID: "M1:YES",
		MarketID:   "M1",
		Side:       "YES",
		Price:      0.4,
		Amount:     100,
		Quantity:   250,
	})

	require.NotNil(t, got)
	assert.Equal(t, TradeExecuted, got.Type)
	assert.Equal(t, "alice", got.Scope)
	assert.False(t, got.IsPublic())
	assert.Equal(t, "M1:YES", got.Data["position_id"])
	assert.Equal(t, 250.0, got.Data["quantity"])
}

func TestManager_NilSafe(t *testing.T) {
	var manager *Manager
	assert.NotPanics(t, func() {
		manager.EmitTyped("portfolio", "", &FundsAddedData{Amount: 1})
	})
}

func TestEventData_Types(t *testing.T) {
	testCases := []struct {
		data     EventData
		expected EventType
	}{
		{&PriceUpdatedData{}, PriceUpdated},
		{&PriceRefreshFailedData{}, PriceRefreshFailed},
		{&PortfolioChangedData{}, PortfolioChanged},
		{&TradeExecutedData{}, TradeExecuted},
		{&FundsAddedData{}, FundsAdded},
		{&PortfolioClearedData{}, PortfolioCleared},
		{&IdentityChangedData{}, IdentityChanged},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.data.EventType())
	}
}
