package propagation

import (
	"sort"

	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// dependencyNode tracks the sub-recipes a recipe consumes and the recipes consuming it
type dependencyNode struct {
	dependencies map[entities.RecipeID]bool
	consumers    map[entities.RecipeID]bool
}

// dependencyGraph is the reverse-dependency index over a recipe snapshot
type dependencyGraph struct {
	recipes       map[entities.RecipeID]*entities.Recipe
	nodes         map[entities.RecipeID]*dependencyNode
	itemConsumers map[entities.ItemID]map[entities.RecipeID]bool
}

func newDependencyGraph(recipes []*entities.Recipe) *dependencyGraph {
	dg := &dependencyGraph{
		recipes:       make(map[entities.RecipeID]*entities.Recipe, len(recipes)),
		nodes:         make(map[entities.RecipeID]*dependencyNode, len(recipes)),
		itemConsumers: make(map[entities.ItemID]map[entities.RecipeID]bool),
	}

	for _, recipe := range recipes {
		dg.recipes[recipe.ID] = recipe
		dg.ensureNode(recipe.ID)
	}

	for _, recipe := range recipes {
		for _, component := range recipe.Components {
			switch ref := component.Ref.(type) {
			case entities.InventoryItemRef:
				if dg.itemConsumers[ref.ID] == nil {
					dg.itemConsumers[ref.ID] = make(map[entities.RecipeID]bool)
				}
				dg.itemConsumers[ref.ID][recipe.ID] = true
			case entities.RecipeRef:
				// Dangling sub-recipes get a node so consumers still see the dependency;
				// the calculator reports them when the consumer is costed
				dg.ensureNode(ref.ID).consumers[recipe.ID] = true
				dg.nodes[recipe.ID].dependencies[ref.ID] = true
			}
		}
	}

	return dg
}

func (dg *dependencyGraph) ensureNode(id entities.RecipeID) *dependencyNode {
	node, exists := dg.nodes[id]
	if !exists {
		node = &dependencyNode{
			dependencies: make(map[entities.RecipeID]bool),
			consumers:    make(map[entities.RecipeID]bool),
		}
		dg.nodes[id] = node
	}
	return node
}

// affectedBy returns the transitive consumers of source. A recipe source is included.
func (dg *dependencyGraph) affectedBy(source entities.ComponentRef) map[entities.RecipeID]bool {
	affected := make(map[entities.RecipeID]bool)
	queue := make([]entities.RecipeID, 0)

	switch ref := source.(type) {
	case entities.InventoryItemRef:
		for id := range dg.itemConsumers[ref.ID] {
			queue = append(queue, id)
		}
	case entities.RecipeRef:
		queue = append(queue, ref.ID)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if affected[current] {
			continue
		}
		if _, stored := dg.recipes[current]; !stored {
			continue
		}
		affected[current] = true

		for consumer := range dg.nodes[current].consumers {
			if !affected[consumer] {
				queue = append(queue, consumer)
			}
		}
	}

	return affected
}

// dependenciesOf returns the sub-recipes id consumes, sorted
func (dg *dependencyGraph) dependenciesOf(id entities.RecipeID) []entities.RecipeID {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}
	deps := make([]entities.RecipeID, 0, len(node.dependencies))
	for dep := range node.dependencies {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	return deps
}

// layers orders the affected set with Kahn's algorithm restricted to the set. Each layer
// depends only on earlier layers. Recipes that never reach in-degree zero are on or
// above a cycle and come back in leftover.
func (dg *dependencyGraph) layers(affected map[entities.RecipeID]bool) ([][]entities.RecipeID, []entities.RecipeID) {
	inDegree := make(map[entities.RecipeID]int, len(affected))
	current := make([]entities.RecipeID, 0)

	for id := range affected {
		degree := 0
		for dep := range dg.nodes[id].dependencies {
			if affected[dep] {
				degree++
			}
		}
		inDegree[id] = degree
		if degree == 0 {
			current = append(current, id)
		}
	}

	layers := make([][]entities.RecipeID, 0)
	for len(current) > 0 {
		sort.Slice(current, func(i, j int) bool { return current[i] < current[j] })
		layers = append(layers, current)

		next := make([]entities.RecipeID, 0)
		for _, id := range current {
			for consumer := range dg.nodes[id].consumers {
				if !affected[consumer] {
					continue
				}
				inDegree[consumer]--
				if inDegree[consumer] == 0 {
					next = append(next, consumer)
				}
			}
		}
		current = next
	}

	leftover := make([]entities.RecipeID, 0)
	for id, degree := range inDegree {
		if degree > 0 {
			leftover = append(leftover, id)
		}
	}
	sort.Slice(leftover, func(i, j int) bool { return leftover[i] < leftover[j] })

	return layers, leftover
}
