package memory

import (
	"fmt"

	"culturecore/pkg/domain"
)

// CreateCulture stores a new culture within the transaction.
func (tx *transaction) CreateCulture(c Culture) (Culture, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.cultures[c.ID]; exists {
		return Culture{}, fmt.Errorf("culture %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.cultures[c.ID] = cloneCulture(c)
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionCreate, After: cloneCulture(c)})
	return cloneCulture(c), nil
}

// UpdateCulture mutates a culture using the provided mutator function.
func (tx *transaction) UpdateCulture(id string, mutator func(*Culture) error) (Culture, error) {
	current, ok := tx.state.cultures[id]
	if !ok {
		return Culture{}, domain.ErrNotFound{Entity: domain.EntityCulture, ID: id}
	}
	before := cloneCulture(current)
	if err := mutator(&current); err != nil {
		return Culture{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.cultures[id] = cloneCulture(current)
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionUpdate, Before: before, After: cloneCulture(current)})
	return cloneCulture(current), nil
}

// CreateLot stores a new lot.
func (tx *transaction) CreateLot(l Lot) (Lot, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.lots[l.ID]; exists {
		return Lot{}, fmt.Errorf("lot %q already exists", l.ID)
	}
	if _, ok := tx.state.cultures[l.CultureID]; !ok {
		return Lot{}, domain.ErrNotFound{Entity: domain.EntityCulture, ID: l.CultureID}
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.lots[l.ID] = cloneLot(l)
	tx.recordChange(Change{Entity: domain.EntityLot, Action: domain.ActionCreate, After: cloneLot(l)})
	return cloneLot(l), nil
}

// UpdateLot mutates an existing lot.
func (tx *transaction) UpdateLot(id string, mutator func(*Lot) error) (Lot, error) {
	current, ok := tx.state.lots[id]
	if !ok {
		return Lot{}, domain.ErrNotFound{Entity: domain.EntityLot, ID: id}
	}
	before := cloneLot(current)
	if err := mutator(&current); err != nil {
		return Lot{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.lots[id] = cloneLot(current)
	tx.recordChange(Change{Entity: domain.EntityLot, Action: domain.ActionUpdate, Before: before, After: cloneLot(current)})
	return cloneLot(current), nil
}

// CreateContainer stores a new container.
func (tx *transaction) CreateContainer(c Container) (Container, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.containers[c.ID]; exists {
		return Container{}, fmt.Errorf("container %q already exists", c.ID)
	}
	if _, ok := tx.state.lots[c.LotID]; !ok {
		return Container{}, domain.ErrNotFound{Entity: domain.EntityLot, ID: c.LotID}
	}
	if c.PositionID != nil {
		if _, ok := tx.state.positions[*c.PositionID]; !ok {
			return Container{}, domain.ErrNotFound{Entity: domain.EntityStoragePosition, ID: *c.PositionID}
		}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.containers[c.ID] = cloneContainer(c)
	tx.recordChange(Change{Entity: domain.EntityContainer, Action: domain.ActionCreate, After: cloneContainer(c)})
	return cloneContainer(c), nil
}

// UpdateContainer mutates an existing container.
func (tx *transaction) UpdateContainer(id string, mutator func(*Container) error) (Container, error) {
	current, ok := tx.state.containers[id]
	if !ok {
		return Container{}, domain.ErrNotFound{Entity: domain.EntityContainer, ID: id}
	}
	before := cloneContainer(current)
	if err := mutator(&current); err != nil {
		return Container{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.containers[id] = cloneContainer(current)
	tx.recordChange(Change{Entity: domain.EntityContainer, Action: domain.ActionUpdate, Before: before, After: cloneContainer(current)})
	return cloneContainer(current), nil
}

// CreateBank stores a new bank.
func (tx *transaction) CreateBank(b Bank) (Bank, error) {
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if _, exists := tx.state.banks[b.ID]; exists {
		return Bank{}, fmt.Errorf("bank %q already exists", b.ID)
	}
	if _, ok := tx.state.cultures[b.CultureID]; !ok {
		return Bank{}, domain.ErrNotFound{Entity: domain.EntityCulture, ID: b.CultureID}
	}
	if _, ok := tx.state.lots[b.LotID]; !ok {
		return Bank{}, domain.ErrNotFound{Entity: domain.EntityLot, ID: b.LotID}
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.banks[b.ID] = b
	tx.recordChange(Change{Entity: domain.EntityBank, Action: domain.ActionCreate, After: b})
	return b, nil
}

// UpdateBank mutates an existing bank.
func (tx *transaction) UpdateBank(id string, mutator func(*Bank) error) (Bank, error) {
	current, ok := tx.state.banks[id]
	if !ok {
		return Bank{}, domain.ErrNotFound{Entity: domain.EntityBank, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Bank{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.banks[id] = current
	tx.recordChange(Change{Entity: domain.EntityBank, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateCryoVial stores a new cryovial.
func (tx *transaction) CreateCryoVial(v CryoVial) (CryoVial, error) {
	if v.ID == "" {
		v.ID = tx.store.newID()
	}
	if _, exists := tx.state.vials[v.ID]; exists {
		return CryoVial{}, fmt.Errorf("cryovial %q already exists", v.ID)
	}
	if _, ok := tx.state.banks[v.BankID]; !ok {
		return CryoVial{}, domain.ErrNotFound{Entity: domain.EntityBank, ID: v.BankID}
	}
	if v.PositionID != nil {
		if _, ok := tx.state.positions[*v.PositionID]; !ok {
			return CryoVial{}, domain.ErrNotFound{Entity: domain.EntityStoragePosition, ID: *v.PositionID}
		}
	}
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	tx.state.vials[v.ID] = cloneVial(v)
	tx.recordChange(Change{Entity: domain.EntityCryoVial, Action: domain.ActionCreate, After: cloneVial(v)})
	return cloneVial(v), nil
}

// UpdateCryoVial mutates an existing cryovial.
func (tx *transaction) UpdateCryoVial(id string, mutator func(*CryoVial) error) (CryoVial, error) {
	current, ok := tx.state.vials[id]
	if !ok {
		return CryoVial{}, domain.ErrNotFound{Entity: domain.EntityCryoVial, ID: id}
	}
	before := cloneVial(current)
	if err := mutator(&current); err != nil {
		return CryoVial{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.vials[id] = cloneVial(current)
	tx.recordChange(Change{Entity: domain.EntityCryoVial, Action: domain.ActionUpdate, Before: before, After: cloneVial(current)})
	return cloneVial(current), nil
}

// CreateNomenclature stores a new catalog entry.
func (tx *transaction) CreateNomenclature(n Nomenclature) (Nomenclature, error) {
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if _, exists := tx.state.nomenclatures[n.ID]; exists {
		return Nomenclature{}, fmt.Errorf("nomenclature %q already exists", n.ID)
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.nomenclatures[n.ID] = cloneNomenclature(n)
	tx.recordChange(Change{Entity: domain.EntityNomenclature, Action: domain.ActionCreate, After: cloneNomenclature(n)})
	return cloneNomenclature(n), nil
}

// UpdateNomenclature mutates an existing catalog entry.
func (tx *transaction) UpdateNomenclature(id string, mutator func(*Nomenclature) error) (Nomenclature, error) {
	current, ok := tx.state.nomenclatures[id]
	if !ok {
		return Nomenclature{}, domain.ErrNotFound{Entity: domain.EntityNomenclature, ID: id}
	}
	before := cloneNomenclature(current)
	if err := mutator(&current); err != nil {
		return Nomenclature{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.nomenclatures[id] = cloneNomenclature(current)
	tx.recordChange(Change{Entity: domain.EntityNomenclature, Action: domain.ActionUpdate, Before: before, After: cloneNomenclature(current)})
	return cloneNomenclature(current), nil
}

// CreateBatch stores a new batch.
func (tx *transaction) CreateBatch(b Batch) (Batch, error) {
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if _, exists := tx.state.batches[b.ID]; exists {
		return Batch{}, fmt.Errorf("batch %q already exists", b.ID)
	}
	if _, ok := tx.state.nomenclatures[b.NomenclatureID]; !ok {
		return Batch{}, domain.ErrNotFound{Entity: domain.EntityNomenclature, ID: b.NomenclatureID}
	}
	if b.InitialQuantity == 0 {
		b.InitialQuantity = b.Quantity
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.batches[b.ID] = cloneBatch(b)
	tx.recordChange(Change{Entity: domain.EntityBatch, Action: domain.ActionCreate, After: cloneBatch(b)})
	return cloneBatch(b), nil
}

// UpdateBatch mutates an existing batch.
func (tx *transaction) UpdateBatch(id string, mutator func(*Batch) error) (Batch, error) {
	current, ok := tx.state.batches[id]
	if !ok {
		return Batch{}, domain.ErrNotFound{Entity: domain.EntityBatch, ID: id}
	}
	before := cloneBatch(current)
	if err := mutator(&current); err != nil {
		return Batch{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.batches[id] = cloneBatch(current)
	tx.recordChange(Change{Entity: domain.EntityBatch, Action: domain.ActionUpdate, Before: before, After: cloneBatch(current)})
	return cloneBatch(current), nil
}

// CreateReadyMedium stores a new prepared solution.
func (tx *transaction) CreateReadyMedium(m ReadyMedium) (ReadyMedium, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.media[m.ID]; exists {
		return ReadyMedium{}, fmt.Errorf("ready medium %q already exists", m.ID)
	}
	if m.SourceBatchID != nil {
		if _, ok := tx.state.batches[*m.SourceBatchID]; !ok {
			return ReadyMedium{}, domain.ErrNotFound{Entity: domain.EntityBatch, ID: *m.SourceBatchID}
		}
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.media[m.ID] = cloneMedium(m)
	tx.recordChange(Change{Entity: domain.EntityReadyMedium, Action: domain.ActionCreate, After: cloneMedium(m)})
	return cloneMedium(m), nil
}

// UpdateReadyMedium mutates an existing prepared solution.
func (tx *transaction) UpdateReadyMedium(id string, mutator func(*ReadyMedium) error) (ReadyMedium, error) {
	current, ok := tx.state.media[id]
	if !ok {
		return ReadyMedium{}, domain.ErrNotFound{Entity: domain.EntityReadyMedium, ID: id}
	}
	before := cloneMedium(current)
	if err := mutator(&current); err != nil {
		return ReadyMedium{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.media[id] = cloneMedium(current)
	tx.recordChange(Change{Entity: domain.EntityReadyMedium, Action: domain.ActionUpdate, Before: before, After: cloneMedium(current)})
	return cloneMedium(current), nil
}

// CreateStoragePosition stores a new storage position.
func (tx *transaction) CreateStoragePosition(p StoragePosition) (StoragePosition, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.positions[p.ID]; exists {
		return StoragePosition{}, fmt.Errorf("storage position %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.positions[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityStoragePosition, Action: domain.ActionCreate, After: p})
	return p, nil
}

// UpdateStoragePosition mutates an existing storage position.
func (tx *transaction) UpdateStoragePosition(id string, mutator func(*StoragePosition) error) (StoragePosition, error) {
	current, ok := tx.state.positions[id]
	if !ok {
		return StoragePosition{}, domain.ErrNotFound{Entity: domain.EntityStoragePosition, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return StoragePosition{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.positions[id] = current
	tx.recordChange(Change{Entity: domain.EntityStoragePosition, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// AppendOperation records an immutable operation. There is no update or
// delete counterpart.
func (tx *transaction) AppendOperation(o Operation) (Operation, error) {
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if _, exists := tx.state.operations[o.ID]; exists {
		return Operation{}, fmt.Errorf("operation %q already exists", o.ID)
	}
	if _, ok := tx.state.cultures[o.CultureID]; !ok {
		return Operation{}, domain.ErrNotFound{Entity: domain.EntityCulture, ID: o.CultureID}
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.operations[o.ID] = cloneOperation(o)
	tx.recordChange(Change{Entity: domain.EntityOperation, Action: domain.ActionCreate, After: cloneOperation(o)})
	return cloneOperation(o), nil
}
