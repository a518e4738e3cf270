package domain

import "context"

// RuleView provides read-only access to domain entities for rule evaluation.
type RuleView interface {
	ListCultures() []Culture
	ListLots() []Lot
	ListContainers() []Container
	ListBanks() []Bank
	ListCryoVials() []CryoVial
	ListNomenclatures() []Nomenclature
	ListBatches() []Batch
	ListReadyMedia() []ReadyMedium
	ListStoragePositions() []StoragePosition
	ListOperations() []Operation
	FindCulture(id string) (Culture, bool)
	FindLot(id string) (Lot, bool)
	FindContainer(id string) (Container, bool)
	FindBank(id string) (Bank, bool)
	FindCryoVial(id string) (CryoVial, bool)
	FindNomenclature(id string) (Nomenclature, bool)
	FindBatch(id string) (Batch, bool)
	FindReadyMedium(id string) (ReadyMedium, bool)
	FindStoragePosition(id string) (StoragePosition, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
