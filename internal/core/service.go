package core

import (
	"context"
	"time"

	"culturecore/internal/infra/persistence/memory"
	"culturecore/pkg/domain"
)

// Service exposes the transactional lifecycle and inventory operations of the
// engine over a persistent store. Lifecycle transitions acquire a per-lot
// lease before committing so two transitions can never consume the same
// container snapshot.
type Service struct {
	store   domain.PersistentStore
	locks   *lotLocks
	metrics MetricsRecorder
	tracer  Tracer
	attach  AttachmentStore
	nowFn   func() time.Time
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithMetricsRecorder wires a metrics recorder into the service.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer wires a tracer into the service.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAttachmentStore wires the store used for non-critical operation
// attachments such as observation photos.
func WithAttachmentStore(store AttachmentStore) ServiceOption {
	return func(s *Service) {
		s.attach = store
	}
}

// withNow overrides the clock, used by tests.
func withNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFn = now
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		locks:   newLotLocks(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService constructs a service over a fresh in-memory store, used
// by tests and ephemeral deployments.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// DefaultRulesEngine returns a rules engine with the core invariants
// registered.
func DefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewPassageLineageRule())
	engine.Register(NewVialConsistencyRule())
	engine.Register(NewBankOrderRule())
	engine.Register(NewTerminalStateRule())
	return engine
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// CreateCulture persists a new culture.
func (s *Service) CreateCulture(ctx context.Context, culture Culture) (Culture, Result, error) {
	var created Culture
	var res Result
	err := s.instrument(ctx, "create_culture", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateCulture(culture)
			return err
		})
		return err
	})
	return created, res, err
}

// CreateNomenclature persists a catalog entry.
func (s *Service) CreateNomenclature(ctx context.Context, n Nomenclature) (Nomenclature, Result, error) {
	var created Nomenclature
	var res Result
	err := s.instrument(ctx, "create_nomenclature", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateNomenclature(n)
			return err
		})
		return err
	})
	return created, res, err
}

// CreateBatch persists a physical batch of a nomenclature item.
func (s *Service) CreateBatch(ctx context.Context, b Batch) (Batch, Result, error) {
	var created Batch
	var res Result
	err := s.instrument(ctx, "create_batch", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := tx.Snapshot().FindNomenclature(b.NomenclatureID); !ok {
				return domain.ErrNotFound{Entity: EntityNomenclature, ID: b.NomenclatureID}
			}
			var err error
			created, err = tx.CreateBatch(b)
			return err
		})
		return err
	})
	return created, res, err
}

// CreateReadyMedium persists a prepared solution.
func (s *Service) CreateReadyMedium(ctx context.Context, m ReadyMedium) (ReadyMedium, Result, error) {
	var created ReadyMedium
	var res Result
	err := s.instrument(ctx, "create_ready_medium", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateReadyMedium(m)
			return err
		})
		return err
	})
	return created, res, err
}

// CreateStoragePosition persists a storage location.
func (s *Service) CreateStoragePosition(ctx context.Context, p StoragePosition) (StoragePosition, Result, error) {
	var created StoragePosition
	var res Result
	err := s.instrument(ctx, "create_storage_position", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateStoragePosition(p)
			return err
		})
		return err
	})
	return created, res, err
}

// SeedLot imports an externally sourced lot with freshly seeded containers.
func (s *Service) SeedLot(ctx context.Context, req domain.SeedLotRequest) (domain.OperationResult, Result, error) {
	var out domain.OperationResult
	var res Result
	err := s.instrument(ctx, "seed_lot", func(ctx context.Context) error {
		if req.PassageNumber < 0 {
			return domain.ValidationError{Field: "passage_number", Reason: "must not be negative"}
		}
		if err := validateDestination(req.Destination); err != nil {
			return err
		}
		now := s.nowFn()
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			view := tx.Snapshot()
			if _, ok := view.FindCulture(req.CultureID); !ok {
				return domain.ErrNotFound{Entity: EntityCulture, ID: req.CultureID}
			}
			if err := validatePosition(view, req.Destination.PositionID); err != nil {
				return err
			}
			lot, err := tx.CreateLot(Lot{
				CultureID:     req.CultureID,
				PassageNumber: req.PassageNumber,
				Status:        domain.LotStatusActive,
				SeededAt:      now,
				InitialCells:  req.InitialCells,
			})
			if err != nil {
				return err
			}
			initial := 0.0
			if req.InitialCells != nil {
				initial = *req.InitialCells
			}
			containers, err := seedContainers(tx, lot.ID, req.Destination, initial)
			if err != nil {
				return err
			}
			out = domain.OperationResult{Lots: []Lot{lot}, Containers: containers, CommittedAt: now}
			return nil
		})
		return err
	})
	return out, res, err
}

// ApproveBank progresses a pending bank to approved.
func (s *Service) ApproveBank(ctx context.Context, bankID string) (Bank, Result, error) {
	return s.progressBank(ctx, "approve_bank", bankID, domain.BankStatusApproved)
}

// RejectBank progresses a pending bank to rejected.
func (s *Service) RejectBank(ctx context.Context, bankID string) (Bank, Result, error) {
	return s.progressBank(ctx, "reject_bank", bankID, domain.BankStatusRejected)
}

func (s *Service) progressBank(ctx context.Context, operation, bankID string, to domain.BankStatus) (Bank, Result, error) {
	var updated Bank
	var res Result
	err := s.instrument(ctx, operation, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			updated, err = tx.UpdateBank(bankID, func(b *Bank) error {
				if b.Status != domain.BankStatusQCPending {
					return domain.ValidationError{Field: "status", Reason: "bank QC already resolved"}
				}
				b.Status = to
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// DisposeLot terminates an active lot, disposing its remaining in-culture
// containers.
func (s *Service) DisposeLot(ctx context.Context, lotID string) (Lot, Result, error) {
	var updated Lot
	var res Result
	err := s.instrument(ctx, "dispose_lot", func(ctx context.Context) error {
		release, err := s.locks.Acquire(lotID)
		if err != nil {
			return err
		}
		defer release()
		now := s.nowFn()
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			view := tx.Snapshot()
			lot, ok := view.FindLot(lotID)
			if !ok {
				return domain.ErrNotFound{Entity: EntityLot, ID: lotID}
			}
			if lot.Status != domain.LotStatusActive {
				return domain.ValidationError{Field: "status", Reason: "only active lots can be disposed"}
			}
			for _, c := range view.ListContainersForLot(lotID) {
				if c.Status != domain.ContainerStatusInCulture {
					continue
				}
				if _, err := tx.UpdateContainer(c.ID, func(c *Container) error {
					c.Status = domain.ContainerStatusDispose
					return nil
				}); err != nil {
					return err
				}
			}
			var err error
			updated, err = tx.UpdateLot(lotID, func(l *Lot) error {
				l.Status = domain.LotStatusDisposed
				l.ClosedAt = &now
				return nil
			})
			return err
		})
		return err
	})
	return updated, res, err
}

// ListLotsForCulture returns the lots of a culture from a consistent snapshot.
func (s *Service) ListLotsForCulture(ctx context.Context, cultureID string) ([]Lot, error) {
	var out []Lot
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = view.ListLotsForCulture(cultureID)
		return nil
	})
	return out, err
}

// ListContainersForLot returns the containers of a lot.
func (s *Service) ListContainersForLot(ctx context.Context, lotID string) ([]Container, error) {
	var out []Container
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = view.ListContainersForLot(lotID)
		return nil
	})
	return out, err
}

// ListBanksForCulture returns the banks of a culture.
func (s *Service) ListBanksForCulture(ctx context.Context, cultureID string) ([]Bank, error) {
	var out []Bank
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = view.ListBanksForCulture(cultureID)
		return nil
	})
	return out, err
}

// ListVialsForBank returns the vials of a bank.
func (s *Service) ListVialsForBank(ctx context.Context, bankID string) ([]CryoVial, error) {
	var out []CryoVial
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = view.ListVialsForBank(bankID)
		return nil
	})
	return out, err
}

// ResolveCandidates returns the FEFO-ranked candidate pool for a usage tag.
func (s *Service) ResolveCandidates(ctx context.Context, usage domain.UsageTag) ([]Candidate, error) {
	var out []Candidate
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = ResolveCandidates(view, usage)
		return nil
	})
	return out, err
}

// LowStock returns the batches currently below their configured threshold.
func (s *Service) LowStock(ctx context.Context) ([]LowStockEntry, error) {
	var out []LowStockEntry
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = LowStockReport(view)
		return nil
	})
	return out, err
}

// AliquotGroups aggregates duplicate aliquots for reporting, most urgent
// expiry first.
func (s *Service) AliquotGroups(ctx context.Context) ([]AliquotGroup, []ReadyMedium, error) {
	var groups []AliquotGroup
	var singles []ReadyMedium
	now := s.nowFn()
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		groups, singles = GroupAliquots(view.ListReadyMedia(), now)
		return nil
	})
	SortGroupsByUrgency(groups)
	return groups, singles, err
}

// validateDestination checks the shared destination shape of seeding
// operations.
func validateDestination(d domain.DestinationSpec) error {
	if d.TypeCode == "" {
		return domain.ValidationError{Field: "destination.type_code", Reason: "required"}
	}
	if d.Count < 1 {
		return domain.ValidationError{Field: "destination.count", Reason: "must be at least 1"}
	}
	if d.SurfaceAreaCM2 < 0 {
		return domain.ValidationError{Field: "destination.surface_area_cm2", Reason: "must not be negative"}
	}
	return nil
}

// validatePosition confirms an optional storage position reference resolves.
func validatePosition(view domain.TransactionView, positionID *string) error {
	if positionID == nil || *positionID == "" {
		return nil
	}
	if _, ok := view.FindStoragePosition(*positionID); !ok {
		return domain.ErrNotFound{Entity: EntityStoragePosition, ID: *positionID}
	}
	return nil
}

// seedContainers creates the destination containers of a seeding operation.
// totalCells is split evenly across the containers to derive each one's
// seeding density; zero leaves the density unrecorded.
func seedContainers(tx domain.Transaction, lotID string, d domain.DestinationSpec, totalCells float64) ([]Container, error) {
	var density *float64
	if v := CellsPerCM2(totalCells/float64(d.Count), d.SurfaceAreaCM2); v > 0 {
		density = &v
	}
	containers := make([]Container, 0, d.Count)
	for i := 0; i < d.Count; i++ {
		c, err := tx.CreateContainer(Container{
			LotID:             lotID,
			TypeCode:          d.TypeCode,
			SurfaceAreaCM2:    d.SurfaceAreaCM2,
			SeedingDensityCM2: density,
			Status:            domain.ContainerStatusInCulture,
			PositionID:        d.PositionID,
		})
		if err != nil {
			return nil, err
		}
		containers = append(containers, c)
	}
	return containers, nil
}
