package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PriceUpdatedData contains data for PriceUpdated events
type PriceUpdatedData struct {
	EventCount  int `json:"event_count"`
	MarketCount int `json:"market_count"`
}

// EventType returns the event type for PriceUpdatedData
func (d *PriceUpdatedData) EventType() EventType {
	return PriceUpdated
}

// PriceRefreshFailedData contains data for PriceRefreshFailed events
type PriceRefreshFailedData struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// EventType returns the event type for PriceRefreshFailedData
func (d *PriceRefreshFailedData) EventType() EventType {
	return PriceRefreshFailed
}

// PortfolioChangedData contains data for PortfolioChanged events
type PortfolioChangedData struct {
	Action    string  `json:"action"`
	Balance   float64 `json:"balance"`
	Positions int     `json:"positions"`
}

// EventType returns the event type for PortfolioChangedData
func (d *PortfolioChangedData) EventType() EventType {
	return PortfolioChanged
}

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	PositionID string  `json:"position_id"`
	MarketID   string  `json:"market_id"`
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	Amount     float64 `json:"amount"`
	Quantity   float64 `json:"quantity"`
}

// EventType returns the event type for TradeExecutedData
func (d *TradeExecutedData) EventType() EventType {
	return TradeExecuted
}

// FundsAddedData contains data for FundsAdded events
type FundsAddedData struct {
	Amount  float64 `json:"amount"`
	Balance float64 `json:"balance"`
}

// EventType returns the event type for FundsAddedData
func (d *FundsAddedData) EventType() EventType {
	return FundsAdded
}

// PortfolioClearedData contains data for PortfolioCleared events
type PortfolioClearedData struct {
	Balance float64 `json:"balance"`
}

// EventType returns the event type for PortfolioClearedData
func (d *PortfolioClearedData) EventType() EventType {
	return PortfolioCleared
}

// IdentityChangedData contains data for IdentityChanged events
type IdentityChangedData struct {
	SignedIn bool `json:"signed_in"`
	Epoch    int  `json:"epoch"`
}

// EventType returns the event type for IdentityChangedData
func (d *IdentityChangedData) EventType() EventType {
	return IdentityChanged
}
