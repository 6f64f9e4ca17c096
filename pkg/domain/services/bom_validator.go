package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// DuplicateComponent is a recipe that references the same target more than once
type DuplicateComponent struct {
	RecipeID  entities.RecipeID
	Ref       entities.ComponentRef
	Positions []int
}

// ValidationResult contains the results of recipe catalog validation
type ValidationResult struct {
	HasCycles           bool
	CyclePaths          [][]entities.RecipeID
	DanglingReferences  []entities.DanglingComponentReferenceError
	DuplicateComponents []DuplicateComponent
	// NonSubRecipeReferences lists recipes used as components without being flagged as sub-recipes
	NonSubRecipeReferences []entities.RecipeID
	Errors                 []string
	Warnings               []string
}

// ValidateRecipes performs structural validation over a whole recipe catalog
func ValidateRecipes(recipes []*entities.Recipe, items []*entities.InventoryItem) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:             make([][]entities.RecipeID, 0),
		DanglingReferences:     make([]entities.DanglingComponentReferenceError, 0),
		DuplicateComponents:    make([]DuplicateComponent, 0),
		NonSubRecipeReferences: make([]entities.RecipeID, 0),
		Errors:                 make([]string, 0),
		Warnings:               make([]string, 0),
	}

	recipesByID := make(map[entities.RecipeID]*entities.Recipe, len(recipes))
	for _, recipe := range recipes {
		recipesByID[recipe.ID] = recipe
	}
	itemsByID := make(map[entities.ItemID]bool, len(items))
	for _, item := range items {
		itemsByID[item.ID] = true
	}

	adjacencyMap := buildAdjacencyMap(recipes)

	result.CyclePaths = detectCycles(adjacencyMap)
	result.HasCycles = len(result.CyclePaths) > 0
	for _, cycle := range result.CyclePaths {
		cycleErr := entities.CyclicRecipeReferenceError{Cycle: cycle}
		result.Errors = append(result.Errors, cycleErr.Error())
	}

	nonSub := make(map[entities.RecipeID]bool)
	for _, recipe := range recipes {
		for _, component := range recipe.Components {
			switch ref := component.Ref.(type) {
			case entities.InventoryItemRef:
				if !itemsByID[ref.ID] {
					result.DanglingReferences = append(result.DanglingReferences,
						entities.DanglingComponentReferenceError{RecipeID: recipe.ID, Ref: ref})
				}
			case entities.RecipeRef:
				child, exists := recipesByID[ref.ID]
				if !exists {
					result.DanglingReferences = append(result.DanglingReferences,
						entities.DanglingComponentReferenceError{RecipeID: recipe.ID, Ref: ref})
					continue
				}
				if !child.IsSubRecipe && !nonSub[child.ID] {
					nonSub[child.ID] = true
					result.NonSubRecipeReferences = append(result.NonSubRecipeReferences, child.ID)
				}
			}
		}
	}
	for i := range result.DanglingReferences {
		result.Errors = append(result.Errors, result.DanglingReferences[i].Error())
	}

	result.DuplicateComponents = detectDuplicateComponents(recipes)
	for _, dup := range result.DuplicateComponents {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("recipe %s references %s at positions %v", dup.RecipeID, dup.Ref, dup.Positions))
	}
	for _, id := range result.NonSubRecipeReferences {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("recipe %s is used as a component but is not flagged as a sub-recipe", id))
	}

	return result
}

// buildAdjacencyMap creates a map of recipe -> child recipes
func buildAdjacencyMap(recipes []*entities.Recipe) map[entities.RecipeID][]entities.RecipeID {
	adjacencyMap := make(map[entities.RecipeID][]entities.RecipeID, len(recipes))

	for _, recipe := range recipes {
		children := make([]entities.RecipeID, 0)
		seen := make(map[entities.RecipeID]bool)
		for _, component := range recipe.Components {
			ref, ok := component.Ref.(entities.RecipeRef)
			if !ok || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			children = append(children, ref.ID)
		}
		adjacencyMap[recipe.ID] = children
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the recipe graph
func detectCycles(adjacencyMap map[entities.RecipeID][]entities.RecipeID) [][]entities.RecipeID {
	visited := make(map[entities.RecipeID]bool)
	recursionStack := make(map[entities.RecipeID]bool)
	cycles := make([][]entities.RecipeID, 0)

	// Sorted roots keep the reported cycles stable between runs
	roots := make([]entities.RecipeID, 0, len(adjacencyMap))
	for id := range adjacencyMap {
		roots = append(roots, id)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	for _, root := range roots {
		if !visited[root] {
			dfsDetectCycle(root, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func dfsDetectCycle(
	current entities.RecipeID,
	adjacencyMap map[entities.RecipeID][]entities.RecipeID,
	visited map[entities.RecipeID]bool,
	recursionStack map[entities.RecipeID]bool,
	path []entities.RecipeID,
	cycles *[][]entities.RecipeID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, id := range path {
				if id == child {
					cycle := make([]entities.RecipeID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child) // Close the cycle
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateComponents finds recipes that list the same target on several lines
func detectDuplicateComponents(recipes []*entities.Recipe) []DuplicateComponent {
	duplicates := make([]DuplicateComponent, 0)

	for _, recipe := range recipes {
		positions := make(map[string][]int)
		refs := make(map[string]entities.ComponentRef)
		order := make([]string, 0)
		for _, component := range recipe.Components {
			key := component.Ref.String()
			if _, exists := positions[key]; !exists {
				order = append(order, key)
				refs[key] = component.Ref
			}
			positions[key] = append(positions[key], component.Position)
		}
		for _, key := range order {
			if len(positions[key]) > 1 {
				duplicates = append(duplicates, DuplicateComponent{
					RecipeID:  recipe.ID,
					Ref:       refs[key],
					Positions: positions[key],
				})
			}
		}
	}

	return duplicates
}
