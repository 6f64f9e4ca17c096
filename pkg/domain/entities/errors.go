package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching. The structured types below match them.
var (
	ErrCyclicRecipeReference      = errors.New("cyclic recipe reference")
	ErrDanglingComponentReference = errors.New("dangling component reference")
	ErrIncompatibleUnitKinds      = errors.New("incompatible unit kinds")
	ErrUnknownUnit                = errors.New("unknown unit")
	ErrInvalidYieldPercent        = errors.New("invalid yield percent")
	ErrNumericOverflow            = errors.New("numeric overflow")
	ErrDependencyFailed           = errors.New("dependency failed")

	ErrRecipeNotFound        = errors.New("recipe not found")
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrMenuItemNotFound      = errors.New("menu item not found")
	ErrCountNotFound         = errors.New("inventory count not found")
)

// CyclicRecipeReferenceError names the cycle, first and last element equal
type CyclicRecipeReferenceError struct {
	Cycle []RecipeID
}

func (e *CyclicRecipeReferenceError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = string(id)
	}
	return fmt.Sprintf("cyclic recipe reference: %s", strings.Join(parts, " -> "))
}

func (e *CyclicRecipeReferenceError) Is(target error) bool {
	return target == ErrCyclicRecipeReference
}

// DanglingComponentReferenceError reports a component whose target does not resolve
type DanglingComponentReferenceError struct {
	RecipeID RecipeID
	Ref      ComponentRef
}

func (e *DanglingComponentReferenceError) Error() string {
	return fmt.Sprintf("dangling component reference in recipe %s: %s does not exist", e.RecipeID, e.Ref)
}

func (e *DanglingComponentReferenceError) Is(target error) bool {
	return target == ErrDanglingComponentReference
}

// IncompatibleUnitKindsError reports a conversion across kinds with no explicit override
type IncompatibleUnitKindsError struct {
	From     UnitID
	To       UnitID
	FromKind UnitKind
	ToKind   UnitKind
}

func (e *IncompatibleUnitKindsError) Error() string {
	return fmt.Sprintf("incompatible unit kinds: cannot convert %s (%s) to %s (%s)", e.From, e.FromKind, e.To, e.ToKind)
}

func (e *IncompatibleUnitKindsError) Is(target error) bool {
	return target == ErrIncompatibleUnitKinds
}

// UnknownUnitError reports a unit id missing from the catalog
type UnknownUnitError struct {
	UnitID UnitID
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit: %s", e.UnitID)
}

func (e *UnknownUnitError) Is(target error) bool {
	return target == ErrUnknownUnit
}

// InvalidYieldPercentError reports an item whose yield cannot be divided by
type InvalidYieldPercentError struct {
	ItemID       ItemID
	YieldPercent float64
}

func (e *InvalidYieldPercentError) Error() string {
	return fmt.Sprintf("invalid yield percent for inventory item %s: %g", e.ItemID, e.YieldPercent)
}

func (e *InvalidYieldPercentError) Is(target error) bool {
	return target == ErrInvalidYieldPercent
}

// NumericOverflowError reports non-finite or out-of-range intermediate values, or nesting
// deeper than the calculator allows
type NumericOverflowError struct {
	RecipeID RecipeID
	Reason   string
}

func (e *NumericOverflowError) Error() string {
	return fmt.Sprintf("numeric overflow in recipe %s: %s", e.RecipeID, e.Reason)
}

func (e *NumericOverflowError) Is(target error) bool {
	return target == ErrNumericOverflow
}

// DependencyFailedError marks a recipe skipped because a recipe it consumes failed
type DependencyFailedError struct {
	RecipeID   RecipeID
	Dependency RecipeID
	Err        error
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("recipe %s skipped: dependency %s failed: %v", e.RecipeID, e.Dependency, e.Err)
}

func (e *DependencyFailedError) Is(target error) bool {
	return target == ErrDependencyFailed
}

func (e *DependencyFailedError) Unwrap() error {
	return e.Err
}
