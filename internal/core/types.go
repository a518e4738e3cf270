package core

import "culturecore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Culture            = domain.Culture
	Lot                = domain.Lot
	Container          = domain.Container
	Bank               = domain.Bank
	CryoVial           = domain.CryoVial
	Nomenclature       = domain.Nomenclature
	Batch              = domain.Batch
	ReadyMedium        = domain.ReadyMedium
	StoragePosition    = domain.StoragePosition
	Operation          = domain.Operation
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
	MediaSourceRef     = domain.MediaSourceRef
)

// NewRulesEngine re-exports the domain constructor for callers wiring the core.
var NewRulesEngine = domain.NewRulesEngine

const (
	EntityCulture         = domain.EntityCulture
	EntityLot             = domain.EntityLot
	EntityContainer       = domain.EntityContainer
	EntityBank            = domain.EntityBank
	EntityCryoVial        = domain.EntityCryoVial
	EntityNomenclature    = domain.EntityNomenclature
	EntityBatch           = domain.EntityBatch
	EntityReadyMedium     = domain.EntityReadyMedium
	EntityStoragePosition = domain.EntityStoragePosition
	EntityOperation       = domain.EntityOperation
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
