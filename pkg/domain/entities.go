// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by culturecore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityCulture identifies a biological source culture record.
	EntityCulture EntityType = "culture"
	// EntityLot identifies a lot record (a generation of a culture at a passage number).
	EntityLot EntityType = "lot"
	// EntityContainer identifies a physical vessel belonging to a lot.
	EntityContainer EntityType = "container"
	// EntityBank identifies a cryobank created by a freeze operation.
	EntityBank EntityType = "bank"
	// EntityCryoVial identifies a unit of frozen material owned by a bank.
	EntityCryoVial EntityType = "cryo_vial"
	// EntityNomenclature identifies a consumable/medium/reagent catalog entry.
	EntityNomenclature EntityType = "nomenclature"
	// EntityBatch identifies a physical batch of a nomenclature item.
	EntityBatch EntityType = "batch"
	// EntityReadyMedium identifies a prepared solution record.
	EntityReadyMedium EntityType = "ready_medium"
	// EntityStoragePosition identifies a storage location record.
	EntityStoragePosition EntityType = "storage_position"
	// EntityOperation identifies an immutable lifecycle operation record.
	EntityOperation EntityType = "operation"
)

// LotStatus enumerates lifecycle states of a lot.
type LotStatus string

// Canonical lot statuses. Disposed is terminal and only reachable from active.
const (
	LotStatusActive   LotStatus = "active"
	LotStatusClosed   LotStatus = "closed"
	LotStatusDisposed LotStatus = "disposed"
)

// ContainerStatus enumerates container custody states.
type ContainerStatus string

// Canonical container statuses. Used is terminal: a container consumed by a
// passage can never be fed, observed, or passaged again.
const (
	ContainerStatusInCulture  ContainerStatus = "in_culture"
	ContainerStatusInBank     ContainerStatus = "in_bank"
	ContainerStatusIssued     ContainerStatus = "issued"
	ContainerStatusDispose    ContainerStatus = "dispose"
	ContainerStatusQuarantine ContainerStatus = "quarantine"
	ContainerStatusUsed       ContainerStatus = "used"
)

// BankType designates a cryobank as master or working.
type BankType string

// A culture's chronologically first bank is always the master bank; every
// later bank is a working bank.
const (
	BankTypeMaster  BankType = "mcb"
	BankTypeWorking BankType = "wcb"
)

// BankStatus enumerates QC progression states of a bank.
type BankStatus string

// Banks are created pending QC and progress to approved or rejected.
const (
	BankStatusQCPending BankStatus = "qc_pending"
	BankStatusApproved  BankStatus = "approved"
	BankStatusRejected  BankStatus = "rejected"
)

// VialStatus enumerates cryovial custody states.
type VialStatus string

// Canonical vial statuses. Thawed and disposed are terminal.
const (
	VialStatusInStock  VialStatus = "in_stock"
	VialStatusReserved VialStatus = "reserved"
	VialStatusThawed   VialStatus = "thawed"
	VialStatusDisposed VialStatus = "disposed"
)

// ThresholdType selects how a nomenclature's minimum stock threshold is interpreted.
type ThresholdType string

// Threshold interpretation modes for low-stock evaluation.
const (
	ThresholdQty     ThresholdType = "qty"
	ThresholdVolume  ThresholdType = "volume"
	ThresholdPercent ThresholdType = "percent"
)

// BatchStatus enumerates batch availability states.
type BatchStatus string

// Canonical batch statuses. Expired and used batches never participate in
// allocation or low-stock evaluation.
const (
	BatchStatusAvailable BatchStatus = "available"
	BatchStatusExpired   BatchStatus = "expired"
	BatchStatusUsed      BatchStatus = "used"
)

// PhysicalState enumerates the preparation state of a ready medium.
type PhysicalState string

// Canonical physical states for prepared solutions.
const (
	StateWorkingSolution PhysicalState = "working_solution"
	StateStockSolution   PhysicalState = "stock_solution"
	StateAliquot         PhysicalState = "aliquot"
	StateAsReceived      PhysicalState = "as_received"
)

// MediumStatus enumerates ready medium lifecycle states.
type MediumStatus string

// Canonical ready medium statuses.
const (
	MediumStatusActive     MediumStatus = "active"
	MediumStatusQuarantine MediumStatus = "quarantine"
	MediumStatusUsed       MediumStatus = "used"
	MediumStatusExpired    MediumStatus = "expired"
	MediumStatusDispose    MediumStatus = "dispose"
)

// UsageTag classifies which lifecycle operations an inventory item serves.
type UsageTag string

// Usage tags consumed by the FEFO candidate resolver.
const (
	UsageFeed                UsageTag = "feed"
	UsageThaw                UsageTag = "thaw"
	UsagePassageDissociation UsageTag = "passage_dissociation"
	UsagePassageWash         UsageTag = "passage_wash"
	UsagePassageSeed         UsageTag = "passage_seed"
	UsageFreeze              UsageTag = "freeze"
)

// OperationType enumerates lifecycle transitions recorded by the engine.
type OperationType string

// Canonical operation types.
const (
	OpObserve OperationType = "observe"
	OpFeed    OperationType = "feed"
	OpPassage OperationType = "passage"
	OpFreeze  OperationType = "freeze"
	OpThaw    OperationType = "thaw"
)

// SplitMode distinguishes full from partial passage of a lot.
type SplitMode string

// A passage is full iff the selected containers equal the complete set of
// currently active containers of the source lot.
const (
	SplitFull    SplitMode = "full"
	SplitPartial SplitMode = "partial"
)

// SourceKind tags a MediaSourceRef as pointing at a ready medium or a batch.
type SourceKind string

// Media source kinds.
const (
	SourceReadyMedium SourceKind = "ready_medium"
	SourceBatch       SourceKind = "batch"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Culture represents a biological source from which lots descend.
type Culture struct {
	Base
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Species     string  `json:"species"`
	Description *string `json:"description,omitempty"`
}

// Lot is a generation of a culture at a given passage number. A lot created
// by passage carries its parent's passage number plus one; a lot created by
// thaw starts at zero relative to the thawed vial's lineage.
type Lot struct {
	Base
	CultureID     string     `json:"culture_id"`
	ParentLotID   *string    `json:"parent_lot_id"`
	SourceVialID  *string    `json:"source_vial_id"`
	PassageNumber int        `json:"passage_number"`
	Status        LotStatus  `json:"status"`
	SeededAt      time.Time  `json:"seeded_at"`
	InitialCells  *float64   `json:"initial_cells,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// Container is a physical vessel belonging to a lot. PositionID is a weak
// reference to a storage position; the container does not own the position.
type Container struct {
	Base
	LotID             string          `json:"lot_id"`
	TypeCode          string          `json:"type_code"`
	SurfaceAreaCM2    float64         `json:"surface_area_cm2"`
	SeedingDensityCM2 *float64        `json:"seeding_density_cm2,omitempty"`
	Status            ContainerStatus `json:"status"`
	ConfluencePct     *float64        `json:"confluence_pct,omitempty"`
	Morphology        *string         `json:"morphology,omitempty"`
	Contaminated      bool            `json:"contaminated"`
	PositionID        *string         `json:"position_id,omitempty"`
}

// Bank is a cryobank produced by a freeze operation. Type is resolved at
// commit time and immutable afterwards.
type Bank struct {
	Base
	CultureID      string     `json:"culture_id"`
	LotID          string     `json:"lot_id"`
	Type           BankType   `json:"type"`
	Status         BankStatus `json:"status"`
	FrozenAt       time.Time  `json:"frozen_at"`
	FreezingMethod string     `json:"freezing_method"`
	TotalCells     float64    `json:"total_cells"`
	VialCount      int        `json:"vial_count"`
}

// CryoVial is a unit of frozen material owned by a bank.
type CryoVial struct {
	Base
	BankID     string     `json:"bank_id"`
	Status     VialStatus `json:"status"`
	CellsCount float64    `json:"cells_count"`
	CellsPerML float64    `json:"cells_per_ml"`
	VolumeML   float64    `json:"volume_ml"`
	PositionID *string    `json:"position_id,omitempty"`
}

// Nomenclature is a catalog entry for a consumable, medium, or reagent.
type Nomenclature struct {
	Base
	Code                  string        `json:"code"`
	Name                  string        `json:"name"`
	Category              string        `json:"category"`
	UnitType              string        `json:"unit_type"`
	MinStockThreshold     *float64      `json:"min_stock_threshold,omitempty"`
	MinStockThresholdType ThresholdType `json:"min_stock_threshold_type,omitempty"`
	UsageTags             []UsageTag    `json:"usage_tags,omitempty"`
}

// Batch is a physical lot of a nomenclature item.
type Batch struct {
	Base
	NomenclatureID      string      `json:"nomenclature_id"`
	LotNumber           string      `json:"lot_number"`
	Quantity            float64     `json:"quantity"`
	InitialQuantity     float64     `json:"initial_quantity"`
	UnitVolumeML        *float64    `json:"unit_volume_ml,omitempty"`
	CurrentUnitVolumeML *float64    `json:"current_unit_volume_ml,omitempty"`
	ExpirationDate      *time.Time  `json:"expiration_date,omitempty"`
	Status              BatchStatus `json:"status"`
}

// ReadyMedium is a prepared solution available for lifecycle operations.
type ReadyMedium struct {
	Base
	Name            string        `json:"name"`
	SourceBatchID   *string       `json:"source_batch_id,omitempty"`
	PhysicalState   PhysicalState `json:"physical_state"`
	CurrentVolumeML float64       `json:"current_volume_ml"`
	UnitVolumeML    *float64      `json:"unit_volume_ml,omitempty"`
	Status          MediumStatus  `json:"status"`
	ExpirationDate  *time.Time    `json:"expiration_date,omitempty"`
	UsageTags       []UsageTag    `json:"usage_tags,omitempty"`
}

// StoragePosition is a storage location that containers and vials reference
// weakly. It owns nothing; reverse lookups are an index concern of the
// persistence layer.
type StoragePosition struct {
	Base
	EquipmentCode string `json:"equipment_code"`
	Path          string `json:"path"`
	Capacity      int    `json:"capacity"`
}

// MediaSourceRef identifies an inventory source as either a ready medium or a
// batch. It replaces prefixed id strings at the engine boundary.
type MediaSourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// ConsumptionRecord captures inventory consumed by a committed operation.
type ConsumptionRecord struct {
	Source   MediaSourceRef `json:"source"`
	VolumeML *float64       `json:"volume_ml,omitempty"`
	Quantity *float64       `json:"quantity,omitempty"`
}

// FEFODeviation records an advisory warning emitted when a caller selected an
// inventory source other than the first-expired candidate. The operation
// proceeds; the deviation is retained on the operation record.
type FEFODeviation struct {
	Usage    UsageTag       `json:"usage"`
	Chosen   MediaSourceRef `json:"chosen"`
	Expected MediaSourceRef `json:"expected"`
}

// OperationMetrics carries the derived biological metrics of an operation.
// Derived values are always recomputed from the three measured scalars.
type OperationMetrics struct {
	ConcentrationCellsPerML float64  `json:"concentration_cells_per_ml"`
	VolumeML                float64  `json:"volume_ml"`
	ViabilityPct            float64  `json:"viability_pct"`
	TotalCells              float64  `json:"total_cells"`
	PDL                     *float64 `json:"pdl,omitempty"`
	ProliferationRate       *float64 `json:"proliferation_rate,omitempty"`
	DoublingTimeDays        *float64 `json:"doubling_time_days,omitempty"`
	ElapsedDays             *float64 `json:"elapsed_days,omitempty"`
}

// Operation is an immutable record of a lifecycle transition. Persistence
// implementations expose no update or delete for operations.
type Operation struct {
	Base
	Type               OperationType       `json:"type"`
	CultureID          string              `json:"culture_id"`
	LotID              *string             `json:"lot_id,omitempty"`
	PerformedAt        time.Time           `json:"performed_at"`
	SplitMode          SplitMode           `json:"split_mode,omitempty"`
	Metrics            *OperationMetrics   `json:"metrics,omitempty"`
	Consumed           []ConsumptionRecord `json:"consumed,omitempty"`
	FEFODeviations     []FEFODeviation     `json:"fefo_deviations,omitempty"`
	SourceContainerIDs []string            `json:"source_container_ids,omitempty"`
	SourceVialIDs      []string            `json:"source_vial_ids,omitempty"`
	ResultLotIDs       []string            `json:"result_lot_ids,omitempty"`
	ResultContainerIDs []string            `json:"result_container_ids,omitempty"`
	ResultBankID       *string             `json:"result_bank_id,omitempty"`
	ResultVialIDs      []string            `json:"result_vial_ids,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
