package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus
func (m *Manager) Bus() *Bus {
	return m.bus
}

// EmitTyped emits an event with typed data to the bus and logs it.
// scope is empty for public events, otherwise the account scope the event belongs to.
func (m *Manager) EmitTyped(module, scope string, data EventData) {
	if m == nil || data == nil {
		return
	}

	dataMap := convertEventDataToMap(data)
	m.bus.Emit(data.EventType(), module, scope, dataMap)

	m.log.Debug().
		Str("event_type", string(data.EventType())).
		Str("module", module).
		Bool("scoped", scope != "").
		Msg("Event emitted")
}

// convertEventDataToMap converts typed EventData to the map carried by Event
func convertEventDataToMap(data EventData) map[string]interface{} {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}
	return result
}
