package propagation

import (
	"context"
	"fmt"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/infrastructure/events"
)

// ChangeHandler reacts to price and recipe change events by propagating and committing
// new costs, then publishing a RecipeCostsRecalculated event.
type ChangeHandler struct {
	propagator *Propagator
	writer     repositories.CostWriter
	eventStore events.EventStore
	ctx        context.Context
}

// NewChangeHandler creates a handler; eventStore may be nil to skip publishing
func NewChangeHandler(
	ctx context.Context,
	propagator *Propagator,
	writer repositories.CostWriter,
	eventStore events.EventStore,
) *ChangeHandler {
	return &ChangeHandler{
		propagator: propagator,
		writer:     writer,
		eventStore: eventStore,
		ctx:        ctx,
	}
}

// Subscribe registers the handler for the events it reacts to
func (h *ChangeHandler) Subscribe(store events.EventStore) error {
	return store.Subscribe([]string{
		events.InventoryItemPriceChangedEvent,
		events.RecipeChangedEvent,
	}, h)
}

func (h *ChangeHandler) CanHandle(eventType string) bool {
	switch eventType {
	case events.InventoryItemPriceChangedEvent, events.RecipeChangedEvent:
		return true
	default:
		return false
	}
}

func (h *ChangeHandler) Handle(event events.Event) error {
	var source entities.ComponentRef

	switch event.Type() {
	case events.InventoryItemPriceChangedEvent:
		data, ok := event.Data().(events.InventoryItemPriceChanged)
		if !ok {
			return fmt.Errorf("invalid event data for inventory item price changed")
		}
		source = entities.InventoryItemRef{ID: data.ItemID}

	case events.RecipeChangedEvent:
		data, ok := event.Data().(events.RecipeChanged)
		if !ok {
			return fmt.Errorf("invalid event data for recipe changed")
		}
		source = entities.RecipeRef{ID: data.RecipeID}

	default:
		return nil
	}

	result, err := h.propagator.OnSourceChanged(h.ctx, source)
	if err != nil {
		return fmt.Errorf("failed to propagate %s: %w", source, err)
	}
	if err := h.propagator.Commit(h.ctx, result, h.writer); err != nil {
		return err
	}

	if h.eventStore == nil {
		return nil
	}

	failures := make(map[entities.RecipeID]string, len(result.Failures))
	for id, failure := range result.Failures {
		failures[id] = failure.Error()
	}
	recalculated := events.NewRecipeCostsRecalculatedEvent(events.RecipeCostsRecalculated{
		RunID:    result.RunID,
		Source:   source.String(),
		Updates:  result.Updates,
		Failures: failures,
	})
	recalculated = events.WithTenant(recalculated, event.Tenant())
	return h.eventStore.AppendEvent(recalculated.StreamID(), recalculated)
}
