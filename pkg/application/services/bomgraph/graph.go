package bomgraph

import "github.com/vsinha/recipecost/pkg/domain/entities"

// Edge is a component line: Quantity of Unit of the referenced target
type Edge struct {
	Position int
	Ref      entities.ComponentRef
	Quantity float64
	Unit     entities.UnitID
}

// RecipeNode is a recipe in the arena together with its outgoing edges
type RecipeNode struct {
	Recipe *entities.Recipe
	Edges  []Edge
}

// Graph is a read-only, acyclic BOM rooted at one recipe. Recipes and inventory items
// are stored in an arena keyed by id; shared sub-recipes appear once.
type Graph struct {
	root      entities.RecipeID
	recipes   map[entities.RecipeID]*RecipeNode
	items     map[entities.ItemID]*entities.InventoryItem
	postOrder []entities.RecipeID
	depth     int
}

func newGraph(root entities.RecipeID) *Graph {
	return &Graph{
		root:    root,
		recipes: make(map[entities.RecipeID]*RecipeNode),
		items:   make(map[entities.ItemID]*entities.InventoryItem),
	}
}

// Root returns the recipe the graph was built from
func (g *Graph) Root() entities.RecipeID {
	return g.root
}

// Recipe returns the node for a recipe reachable from the root
func (g *Graph) Recipe(id entities.RecipeID) (*RecipeNode, bool) {
	node, ok := g.recipes[id]
	return node, ok
}

// Item returns an inventory item reachable from the root
func (g *Graph) Item(id entities.ItemID) (*entities.InventoryItem, bool) {
	item, ok := g.items[id]
	return item, ok
}

// Children returns the edges of a recipe, nil when it is not in the graph
func (g *Graph) Children(id entities.RecipeID) []Edge {
	node, ok := g.recipes[id]
	if !ok {
		return nil
	}
	return node.Edges
}

// PostOrder returns recipe ids leaves first; the root is last
func (g *Graph) PostOrder() []entities.RecipeID {
	order := make([]entities.RecipeID, len(g.postOrder))
	copy(order, g.postOrder)
	return order
}

// Depth returns the number of recipe levels on the longest path from the root
func (g *Graph) Depth() int {
	return g.depth
}

// RecipeCount returns the number of distinct recipes in the graph
func (g *Graph) RecipeCount() int {
	return len(g.recipes)
}

// ItemIDs returns the distinct inventory items reachable from the root
func (g *Graph) ItemIDs() []entities.ItemID {
	ids := make([]entities.ItemID, 0, len(g.items))
	for id := range g.items {
		ids = append(ids, id)
	}
	return ids
}
