package domain

import "time"

// MeasuredSuspension carries the three scalars every derived metric must be
// recomputed from. Precomputed totals are never accepted without them.
type MeasuredSuspension struct {
	ConcentrationCellsPerML float64 `json:"concentration_cells_per_ml"`
	VolumeML                float64 `json:"volume_ml"`
	ViabilityPct            float64 `json:"viability_pct"`
}

// ContainerObservation is one container's reading within an observe request.
type ContainerObservation struct {
	ContainerID   string  `json:"container_id"`
	ConfluencePct float64 `json:"confluence_pct"`
	Morphology    string  `json:"morphology"`
	Contaminated  bool    `json:"contaminated"`
}

// ObserveRequest records confluence, morphology and contamination readings
// for containers of a lot. It never consumes inventory or changes status.
type ObserveRequest struct {
	LotID        string                 `json:"lot_id"`
	Observations []ContainerObservation `json:"observations"`
}

// MediaSelection names an inventory source chosen for an operation step. The
// selection is validated against the FEFO ranking; a non-first pick is
// recorded as a deviation, not rejected.
type MediaSelection struct {
	Usage  UsageTag       `json:"usage"`
	Source MediaSourceRef `json:"source"`
}

// FeedComponent is one additional medium component fed alongside the main
// medium, with its own per-container volume.
type FeedComponent struct {
	Selection            MediaSelection `json:"selection"`
	VolumePerContainerML float64        `json:"volume_per_container_ml"`
}

// FeedRequest exchanges medium on a set of in-culture containers.
type FeedRequest struct {
	LotID                string          `json:"lot_id"`
	ContainerIDs         []string        `json:"container_ids"`
	Medium               MediaSelection  `json:"medium"`
	VolumePerContainerML float64         `json:"volume_per_container_ml"`
	Additives            []FeedComponent `json:"additives,omitempty"`
}

// DestinationSpec describes the vessels an operation seeds into.
type DestinationSpec struct {
	TypeCode       string  `json:"type_code"`
	SurfaceAreaCM2 float64 `json:"surface_area_cm2"`
	Count          int     `json:"count"`
	PositionID     *string `json:"position_id,omitempty"`
}

// PassageRequest splits a lot into a successor generation.
type PassageRequest struct {
	LotID              string             `json:"lot_id"`
	ContainerIDs       []string           `json:"container_ids"`
	Dissociation       MediaSelection     `json:"dissociation"`
	Wash               MediaSelection     `json:"wash"`
	SeedingMedium      MediaSelection     `json:"seeding_medium"`
	Suspension         MeasuredSuspension `json:"suspension"`
	Destination        DestinationSpec    `json:"destination"`
	SeedVolumeML       float64            `json:"seed_volume_ml"`
	DissociationVolume float64            `json:"dissociation_volume_ml"`
	WashVolume         float64            `json:"wash_volume_ml"`
}

// FreezeRequest banks a lot's suspension into cryovials.
type FreezeRequest struct {
	LotID          string             `json:"lot_id"`
	ContainerIDs   []string           `json:"container_ids"`
	Suspension     MeasuredSuspension `json:"suspension"`
	VialCount      int                `json:"vial_count"`
	VolumePerVial  float64            `json:"volume_per_vial_ml"`
	FreezingMedium MediaSelection     `json:"freezing_medium"`
	FreezingMethod string             `json:"freezing_method"`
	PositionID     string             `json:"position_id"`
	MediumVolumeML float64            `json:"medium_volume_ml"`
}

// ThawRequest revives vials from an approved bank. Each vial independently
// produces one new lot at passage number zero with one container of the
// requested (non-cryo) type.
type ThawRequest struct {
	BankID                string         `json:"bank_id"`
	VialIDs               []string       `json:"vial_ids"`
	ThawMedium            MediaSelection `json:"thaw_medium"`
	ContainerTypeCode     string         `json:"container_type_code"`
	SurfaceAreaCM2        float64        `json:"surface_area_cm2"`
	PositionID            *string        `json:"position_id,omitempty"`
	MediumVolumePerVialML float64        `json:"medium_volume_per_vial_ml"`
}

// SeedLotRequest imports an externally sourced lot with freshly seeded
// containers, outside the passage lineage.
type SeedLotRequest struct {
	CultureID     string          `json:"culture_id"`
	PassageNumber int             `json:"passage_number"`
	InitialCells  *float64        `json:"initial_cells,omitempty"`
	Destination   DestinationSpec `json:"destination"`
}

// OperationResult is the committed outcome of a lifecycle transition.
type OperationResult struct {
	Operation   Operation   `json:"operation"`
	Lots        []Lot       `json:"lots,omitempty"`
	Containers  []Container `json:"containers,omitempty"`
	Bank        *Bank       `json:"bank,omitempty"`
	Vials       []CryoVial  `json:"vials,omitempty"`
	CommittedAt time.Time   `json:"committed_at"`
}
