package propagation

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/infrastructure/events"
	testhelpers "github.com/vsinha/recipecost/pkg/infrastructure/testing"
)

type failingWriter struct{}

func (failingWriter) SaveRecipeCosts(ctx context.Context, costs map[entities.RecipeID]decimal.Decimal) error {
	return errors.New("disk full")
}

func TestChangeHandler_PriceChangeEvent(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	store := events.NewInMemoryEventStore()
	handler := NewChangeHandler(context.Background(), propagator, catalog, store)
	if err := handler.Subscribe(store); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	old, _ := catalog.GetInventoryItem("flour")
	testhelpers.SetItemPrice(catalog, "flour", "0.60")
	updated, _ := catalog.GetInventoryItem("flour")

	event := events.NewInventoryItemPriceChangedEvent("flour", old.PricePerBaseUnit, updated.PricePerBaseUnit)
	if err := store.AppendEvent(event.StreamID(), event); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	// Dispatch is synchronous, so costs are committed once AppendEvent returns
	pizza, _ := catalog.GetRecipe("pizza")
	assertCost(t, "committed pizza", pizza.ComputedCost, 0.12+1.0/0.95)

	all, _ := store.ReadAllEvents(0)
	if len(all) != 2 {
		t.Fatalf("Expected price change and recalculation events, got %d", len(all))
	}
	if all[1].Type() != events.RecipeCostsRecalculatedEvent {
		t.Fatalf("Expected %s, got %s", events.RecipeCostsRecalculatedEvent, all[1].Type())
	}
	recalculated := all[1].Data().(events.RecipeCostsRecalculated)
	if recalculated.Source != "item:flour" {
		t.Errorf("Expected source item:flour, got %s", recalculated.Source)
	}
	if len(recalculated.Updates) != 2 {
		t.Errorf("Expected 2 updates, got %v", recalculated.Updates)
	}
	if all[1].ID() == "" || all[0].ID() == all[1].ID() {
		t.Errorf("Expected distinct event ids, got %q and %q", all[0].ID(), all[1].ID())
	}
}

func TestChangeHandler_CarriesTenant(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	store := events.NewInMemoryEventStore()
	handler := NewChangeHandler(context.Background(), propagator, catalog, store)
	if err := handler.Subscribe(store); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	testhelpers.SetItemPrice(catalog, "flour", "0.60")
	event := events.WithTenant(events.NewInventoryItemPriceChangedEvent("flour", decimal.Zero, decimal.Zero), "downtown")
	if err := store.AppendEvent(event.StreamID(), event); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	all, _ := store.ReadAllEvents(0)
	if len(all) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(all))
	}
	if all[1].Tenant() != "downtown" {
		t.Errorf("Expected recalculation for tenant downtown, got %q", all[1].Tenant())
	}
	if all[1].StreamID() != events.RecalculationStream(all[1].Data().(events.RecipeCostsRecalculated).RunID) {
		t.Errorf("Unexpected recalculation stream %s", all[1].StreamID())
	}
}

func TestChangeHandler_RecipeChangedEvent(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	store := events.NewInMemoryEventStore()
	handler := NewChangeHandler(context.Background(), propagator, catalog, nil)
	if err := handler.Subscribe(store); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	testhelpers.AddRecipe(catalog, "pizza", "Cheese Pizza", 1, "each", false,
		testhelpers.RecipeLine("dough", 2, "each"),
		testhelpers.ItemLine("cheese", 4, "oz"),
	)
	event := events.NewRecipeChangedEvent("pizza")
	if err := store.AppendEvent(event.StreamID(), event); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	pizza, _ := catalog.GetRecipe("pizza")
	assertCost(t, "committed pizza", pizza.ComputedCost, 0.20+1.0/0.95)

	// Without an event store nothing further is published
	all, _ := store.ReadAllEvents(0)
	if len(all) != 1 {
		t.Errorf("Expected only the recipe change event, got %d", len(all))
	}
}

func TestChangeHandler_Errors(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	handler := NewChangeHandler(context.Background(), propagator, failingWriter{}, nil)

	if !handler.CanHandle(events.InventoryItemPriceChangedEvent) || !handler.CanHandle(events.RecipeChangedEvent) {
		t.Errorf("Expected handler to accept change events")
	}
	if handler.CanHandle(events.RecipeCostsRecalculatedEvent) {
		t.Errorf("Expected handler to ignore its own output events")
	}

	bad := events.NewEvent(events.InventoryItemPriceChangedEvent, "inventory_item-flour", "not a payload")
	if err := handler.Handle(bad); err == nil {
		t.Errorf("Expected error for invalid event data")
	}

	testhelpers.SetItemPrice(catalog, "flour", "0.70")
	store := events.NewInMemoryEventStore()
	if err := handler.Subscribe(store); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	event := events.NewInventoryItemPriceChangedEvent("flour", decimal.Zero, decimal.Zero)
	err := store.AppendEvent(event.StreamID(), event)
	if err == nil {
		t.Fatalf("Expected commit failure to surface from AppendEvent")
	}

	// The change event is stored even though its handler failed
	all, _ := store.ReadAllEvents(0)
	if len(all) != 1 {
		t.Errorf("Expected the change event to remain appended, got %d events", len(all))
	}
}
