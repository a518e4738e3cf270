// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"culturecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Culture aliases domain.Culture for in-memory persistence operations.
	Culture = domain.Culture
	// Lot aliases domain.Lot.
	Lot = domain.Lot
	// Container aliases domain.Container.
	Container = domain.Container
	// Bank aliases domain.Bank.
	Bank = domain.Bank
	// CryoVial aliases domain.CryoVial.
	CryoVial = domain.CryoVial
	// Nomenclature aliases domain.Nomenclature.
	Nomenclature = domain.Nomenclature
	// Batch aliases domain.Batch.
	Batch = domain.Batch
	// ReadyMedium aliases domain.ReadyMedium.
	ReadyMedium = domain.ReadyMedium
	// StoragePosition aliases domain.StoragePosition.
	StoragePosition = domain.StoragePosition
	// Operation aliases domain.Operation.
	Operation = domain.Operation
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	cultures      map[string]Culture
	lots          map[string]Lot
	containers    map[string]Container
	banks         map[string]Bank
	vials         map[string]CryoVial
	nomenclatures map[string]Nomenclature
	batches       map[string]Batch
	media         map[string]ReadyMedium
	positions     map[string]StoragePosition
	operations    map[string]Operation
}

// Snapshot captures a point-in-time clone of the store state for external
// persistence.
type Snapshot struct {
	Cultures      map[string]Culture         `json:"cultures"`
	Lots          map[string]Lot             `json:"lots"`
	Containers    map[string]Container       `json:"containers"`
	Banks         map[string]Bank            `json:"banks"`
	Vials         map[string]CryoVial        `json:"vials"`
	Nomenclatures map[string]Nomenclature    `json:"nomenclatures"`
	Batches       map[string]Batch           `json:"batches"`
	Media         map[string]ReadyMedium     `json:"media"`
	Positions     map[string]StoragePosition `json:"positions"`
	Operations    map[string]Operation       `json:"operations"`
}

func newMemoryState() memoryState {
	return memoryState{
		cultures:      make(map[string]Culture),
		lots:          make(map[string]Lot),
		containers:    make(map[string]Container),
		banks:         make(map[string]Bank),
		vials:         make(map[string]CryoVial),
		nomenclatures: make(map[string]Nomenclature),
		batches:       make(map[string]Batch),
		media:         make(map[string]ReadyMedium),
		positions:     make(map[string]StoragePosition),
		operations:    make(map[string]Operation),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Cultures:      make(map[string]Culture, len(state.cultures)),
		Lots:          make(map[string]Lot, len(state.lots)),
		Containers:    make(map[string]Container, len(state.containers)),
		Banks:         make(map[string]Bank, len(state.banks)),
		Vials:         make(map[string]CryoVial, len(state.vials)),
		Nomenclatures: make(map[string]Nomenclature, len(state.nomenclatures)),
		Batches:       make(map[string]Batch, len(state.batches)),
		Media:         make(map[string]ReadyMedium, len(state.media)),
		Positions:     make(map[string]StoragePosition, len(state.positions)),
		Operations:    make(map[string]Operation, len(state.operations)),
	}
	for k, v := range state.cultures {
		s.Cultures[k] = cloneCulture(v)
	}
	for k, v := range state.lots {
		s.Lots[k] = cloneLot(v)
	}
	for k, v := range state.containers {
		s.Containers[k] = cloneContainer(v)
	}
	for k, v := range state.banks {
		s.Banks[k] = v
	}
	for k, v := range state.vials {
		s.Vials[k] = cloneVial(v)
	}
	for k, v := range state.nomenclatures {
		s.Nomenclatures[k] = cloneNomenclature(v)
	}
	for k, v := range state.batches {
		s.Batches[k] = cloneBatch(v)
	}
	for k, v := range state.media {
		s.Media[k] = cloneMedium(v)
	}
	for k, v := range state.positions {
		s.Positions[k] = v
	}
	for k, v := range state.operations {
		s.Operations[k] = cloneOperation(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Cultures {
		state.cultures[k] = cloneCulture(v)
	}
	for k, v := range s.Lots {
		state.lots[k] = cloneLot(v)
	}
	for k, v := range s.Containers {
		state.containers[k] = cloneContainer(v)
	}
	for k, v := range s.Banks {
		state.banks[k] = v
	}
	for k, v := range s.Vials {
		state.vials[k] = cloneVial(v)
	}
	for k, v := range s.Nomenclatures {
		state.nomenclatures[k] = cloneNomenclature(v)
	}
	for k, v := range s.Batches {
		state.batches[k] = cloneBatch(v)
	}
	for k, v := range s.Media {
		state.media[k] = cloneMedium(v)
	}
	for k, v := range s.Positions {
		state.positions[k] = v
	}
	for k, v := range s.Operations {
		state.operations[k] = cloneOperation(v)
	}
	return state
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(snapshotFromMemoryState(s))
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneCulture(c Culture) Culture {
	c.Description = clonePtr(c.Description)
	return c
}

func cloneLot(l Lot) Lot {
	l.ParentLotID = clonePtr(l.ParentLotID)
	l.SourceVialID = clonePtr(l.SourceVialID)
	l.InitialCells = clonePtr(l.InitialCells)
	l.ClosedAt = clonePtr(l.ClosedAt)
	return l
}

func cloneContainer(c Container) Container {
	c.SeedingDensityCM2 = clonePtr(c.SeedingDensityCM2)
	c.ConfluencePct = clonePtr(c.ConfluencePct)
	c.Morphology = clonePtr(c.Morphology)
	c.PositionID = clonePtr(c.PositionID)
	return c
}

func cloneVial(v CryoVial) CryoVial {
	v.PositionID = clonePtr(v.PositionID)
	return v
}

func cloneNomenclature(n Nomenclature) Nomenclature {
	n.MinStockThreshold = clonePtr(n.MinStockThreshold)
	n.UsageTags = append([]domain.UsageTag(nil), n.UsageTags...)
	return n
}

func cloneBatch(b Batch) Batch {
	b.UnitVolumeML = clonePtr(b.UnitVolumeML)
	b.CurrentUnitVolumeML = clonePtr(b.CurrentUnitVolumeML)
	b.ExpirationDate = clonePtr(b.ExpirationDate)
	return b
}

func cloneMedium(m ReadyMedium) ReadyMedium {
	m.SourceBatchID = clonePtr(m.SourceBatchID)
	m.UnitVolumeML = clonePtr(m.UnitVolumeML)
	m.ExpirationDate = clonePtr(m.ExpirationDate)
	m.UsageTags = append([]domain.UsageTag(nil), m.UsageTags...)
	return m
}

func cloneOperation(o Operation) Operation {
	o.LotID = clonePtr(o.LotID)
	o.ResultBankID = clonePtr(o.ResultBankID)
	if o.Metrics != nil {
		m := *o.Metrics
		m.PDL = clonePtr(m.PDL)
		m.ProliferationRate = clonePtr(m.ProliferationRate)
		m.DoublingTimeDays = clonePtr(m.DoublingTimeDays)
		m.ElapsedDays = clonePtr(m.ElapsedDays)
		o.Metrics = &m
	}
	if len(o.Consumed) != 0 {
		consumed := make([]domain.ConsumptionRecord, len(o.Consumed))
		for i, rec := range o.Consumed {
			rec.VolumeML = clonePtr(rec.VolumeML)
			rec.Quantity = clonePtr(rec.Quantity)
			consumed[i] = rec
		}
		o.Consumed = consumed
	}
	o.FEFODeviations = append([]domain.FEFODeviation(nil), o.FEFODeviations...)
	o.SourceContainerIDs = append([]string(nil), o.SourceContainerIDs...)
	o.SourceVialIDs = append([]string(nil), o.SourceVialIDs...)
	o.ResultLotIDs = append([]string(nil), o.ResultLotIDs...)
	o.ResultContainerIDs = append([]string(nil), o.ResultContainerIDs...)
	o.ResultVialIDs = append([]string(nil), o.ResultVialIDs...)
	return o
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// migrateSnapshot normalizes snapshots loaded from external storage so older
// or hand-edited state files import cleanly.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Cultures == nil {
		snapshot.Cultures = map[string]Culture{}
	}
	if snapshot.Lots == nil {
		snapshot.Lots = map[string]Lot{}
	}
	if snapshot.Containers == nil {
		snapshot.Containers = map[string]Container{}
	}
	if snapshot.Banks == nil {
		snapshot.Banks = map[string]Bank{}
	}
	if snapshot.Vials == nil {
		snapshot.Vials = map[string]CryoVial{}
	}
	if snapshot.Nomenclatures == nil {
		snapshot.Nomenclatures = map[string]Nomenclature{}
	}
	if snapshot.Batches == nil {
		snapshot.Batches = map[string]Batch{}
	}
	if snapshot.Media == nil {
		snapshot.Media = map[string]ReadyMedium{}
	}
	if snapshot.Positions == nil {
		snapshot.Positions = map[string]StoragePosition{}
	}
	if snapshot.Operations == nil {
		snapshot.Operations = map[string]Operation{}
	}
	for id, lot := range snapshot.Lots {
		if _, ok := snapshot.Cultures[lot.CultureID]; !ok {
			delete(snapshot.Lots, id)
		}
	}
	for id, c := range snapshot.Containers {
		if _, ok := snapshot.Lots[c.LotID]; !ok {
			delete(snapshot.Containers, id)
			continue
		}
		if c.PositionID != nil {
			if _, ok := snapshot.Positions[*c.PositionID]; !ok {
				c.PositionID = nil
				snapshot.Containers[id] = c
			}
		}
	}
	for id, b := range snapshot.Banks {
		if _, ok := snapshot.Cultures[b.CultureID]; !ok {
			delete(snapshot.Banks, id)
		}
	}
	for id, v := range snapshot.Vials {
		if _, ok := snapshot.Banks[v.BankID]; !ok {
			delete(snapshot.Vials, id)
		}
	}
	for id, b := range snapshot.Batches {
		if _, ok := snapshot.Nomenclatures[b.NomenclatureID]; !ok {
			delete(snapshot.Batches, id)
		}
	}
	return snapshot
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The clone is swapped in only after fn succeeds and no registered
// rule blocks the change set.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetLot retrieves a lot by id.
func (s *Store) GetLot(id string) (Lot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.lots[id]
	if !ok {
		return Lot{}, false
	}
	return cloneLot(l), true
}

// GetBank retrieves a bank by id.
func (s *Store) GetBank(id string) (Bank, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.banks[id]
	return b, ok
}

// ListCultures returns all cultures sorted by creation time.
func (s *Store) ListCultures() []Culture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListCultures()
}

// ListLots returns all lots sorted by creation time.
func (s *Store) ListLots() []Lot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListLots()
}

// ListBanks returns all banks sorted by creation time.
func (s *Store) ListBanks() []Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListBanks()
}

// ListOperations returns all operations sorted by creation time.
func (s *Store) ListOperations() []Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListOperations()
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// transactionView exposes a read-only snapshot of the transactional state to
// rules and operation validation.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func sortByCreation[T any](items []T, base func(T) domain.Base) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := base(items[i]), base(items[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// ListCultures returns all cultures within the snapshot.
func (v transactionView) ListCultures() []Culture {
	out := make([]Culture, 0, len(v.state.cultures))
	for _, c := range v.state.cultures {
		out = append(out, cloneCulture(c))
	}
	sortByCreation(out, func(c Culture) domain.Base { return c.Base })
	return out
}

// ListLots returns all lots within the snapshot.
func (v transactionView) ListLots() []Lot {
	out := make([]Lot, 0, len(v.state.lots))
	for _, l := range v.state.lots {
		out = append(out, cloneLot(l))
	}
	sortByCreation(out, func(l Lot) domain.Base { return l.Base })
	return out
}

// ListContainers returns all containers within the snapshot.
func (v transactionView) ListContainers() []Container {
	out := make([]Container, 0, len(v.state.containers))
	for _, c := range v.state.containers {
		out = append(out, cloneContainer(c))
	}
	sortByCreation(out, func(c Container) domain.Base { return c.Base })
	return out
}

// ListBanks returns all banks within the snapshot.
func (v transactionView) ListBanks() []Bank {
	out := make([]Bank, 0, len(v.state.banks))
	for _, b := range v.state.banks {
		out = append(out, b)
	}
	sortByCreation(out, func(b Bank) domain.Base { return b.Base })
	return out
}

// ListCryoVials returns all cryovials within the snapshot.
func (v transactionView) ListCryoVials() []CryoVial {
	out := make([]CryoVial, 0, len(v.state.vials))
	for _, cv := range v.state.vials {
		out = append(out, cloneVial(cv))
	}
	sortByCreation(out, func(cv CryoVial) domain.Base { return cv.Base })
	return out
}

// ListNomenclatures returns all catalog entries within the snapshot.
func (v transactionView) ListNomenclatures() []Nomenclature {
	out := make([]Nomenclature, 0, len(v.state.nomenclatures))
	for _, n := range v.state.nomenclatures {
		out = append(out, cloneNomenclature(n))
	}
	sortByCreation(out, func(n Nomenclature) domain.Base { return n.Base })
	return out
}

// ListBatches returns all batches within the snapshot.
func (v transactionView) ListBatches() []Batch {
	out := make([]Batch, 0, len(v.state.batches))
	for _, b := range v.state.batches {
		out = append(out, cloneBatch(b))
	}
	sortByCreation(out, func(b Batch) domain.Base { return b.Base })
	return out
}

// ListReadyMedia returns all prepared solutions within the snapshot.
func (v transactionView) ListReadyMedia() []ReadyMedium {
	out := make([]ReadyMedium, 0, len(v.state.media))
	for _, m := range v.state.media {
		out = append(out, cloneMedium(m))
	}
	sortByCreation(out, func(m ReadyMedium) domain.Base { return m.Base })
	return out
}

// ListStoragePositions returns all storage positions within the snapshot.
func (v transactionView) ListStoragePositions() []StoragePosition {
	out := make([]StoragePosition, 0, len(v.state.positions))
	for _, p := range v.state.positions {
		out = append(out, p)
	}
	sortByCreation(out, func(p StoragePosition) domain.Base { return p.Base })
	return out
}

// ListOperations returns all operations within the snapshot.
func (v transactionView) ListOperations() []Operation {
	out := make([]Operation, 0, len(v.state.operations))
	for _, o := range v.state.operations {
		out = append(out, cloneOperation(o))
	}
	sortByCreation(out, func(o Operation) domain.Base { return o.Base })
	return out
}

// FindCulture retrieves a culture by id from the snapshot.
func (v transactionView) FindCulture(id string) (Culture, bool) {
	c, ok := v.state.cultures[id]
	if !ok {
		return Culture{}, false
	}
	return cloneCulture(c), true
}

// FindLot retrieves a lot by id from the snapshot.
func (v transactionView) FindLot(id string) (Lot, bool) {
	l, ok := v.state.lots[id]
	if !ok {
		return Lot{}, false
	}
	return cloneLot(l), true
}

// FindContainer retrieves a container by id from the snapshot.
func (v transactionView) FindContainer(id string) (Container, bool) {
	c, ok := v.state.containers[id]
	if !ok {
		return Container{}, false
	}
	return cloneContainer(c), true
}

// FindBank retrieves a bank by id from the snapshot.
func (v transactionView) FindBank(id string) (Bank, bool) {
	b, ok := v.state.banks[id]
	return b, ok
}

// FindCryoVial retrieves a cryovial by id from the snapshot.
func (v transactionView) FindCryoVial(id string) (CryoVial, bool) {
	cv, ok := v.state.vials[id]
	if !ok {
		return CryoVial{}, false
	}
	return cloneVial(cv), true
}

// FindNomenclature retrieves a catalog entry by id from the snapshot.
func (v transactionView) FindNomenclature(id string) (Nomenclature, bool) {
	n, ok := v.state.nomenclatures[id]
	if !ok {
		return Nomenclature{}, false
	}
	return cloneNomenclature(n), true
}

// FindBatch retrieves a batch by id from the snapshot.
func (v transactionView) FindBatch(id string) (Batch, bool) {
	b, ok := v.state.batches[id]
	if !ok {
		return Batch{}, false
	}
	return cloneBatch(b), true
}

// FindReadyMedium retrieves a prepared solution by id from the snapshot.
func (v transactionView) FindReadyMedium(id string) (ReadyMedium, bool) {
	m, ok := v.state.media[id]
	if !ok {
		return ReadyMedium{}, false
	}
	return cloneMedium(m), true
}

// FindStoragePosition retrieves a storage position by id from the snapshot.
func (v transactionView) FindStoragePosition(id string) (StoragePosition, bool) {
	p, ok := v.state.positions[id]
	return p, ok
}

// ListLotsForCulture returns the lots belonging to a culture.
func (v transactionView) ListLotsForCulture(cultureID string) []Lot {
	var out []Lot
	for _, l := range v.state.lots {
		if l.CultureID == cultureID {
			out = append(out, cloneLot(l))
		}
	}
	sortByCreation(out, func(l Lot) domain.Base { return l.Base })
	return out
}

// ListContainersForLot returns the containers belonging to a lot.
func (v transactionView) ListContainersForLot(lotID string) []Container {
	var out []Container
	for _, c := range v.state.containers {
		if c.LotID == lotID {
			out = append(out, cloneContainer(c))
		}
	}
	sortByCreation(out, func(c Container) domain.Base { return c.Base })
	return out
}

// ListBanksForCulture returns the banks belonging to a culture.
func (v transactionView) ListBanksForCulture(cultureID string) []Bank {
	var out []Bank
	for _, b := range v.state.banks {
		if b.CultureID == cultureID {
			out = append(out, b)
		}
	}
	sortByCreation(out, func(b Bank) domain.Base { return b.Base })
	return out
}

// ListVialsForBank returns the vials belonging to a bank.
func (v transactionView) ListVialsForBank(bankID string) []CryoVial {
	var out []CryoVial
	for _, cv := range v.state.vials {
		if cv.BankID == bankID {
			out = append(out, cloneVial(cv))
		}
	}
	sortByCreation(out, func(cv CryoVial) domain.Base { return cv.Base })
	return out
}
