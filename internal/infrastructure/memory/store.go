// Package memory implementa los puertos de repositorio sobre estructuras en
// memoria. Se usa en las pruebas de los casos de uso; el TxRunner no ofrece
// rollback, solo la forma transaccional de los puertos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// Store agrupa todo el estado compartido de los repositorios en memoria.
type Store struct {
	mu sync.Mutex

	movements []*entity.StockMovement
	lots      map[string]*entity.Lot
	batches   map[string]*entity.ProductionBatch
	materials []*entity.BatchMaterial
	outputs   []*entity.BatchOutput
	goods     []*entity.ProcessedGood
	wastes    []*entity.WasteRecord
	transfers []*entity.TransferRecord
	codes     map[string]bool
	users     map[string]*entity.User
}

func NewStore() *Store {
	return &Store{
		lots:    make(map[string]*entity.Lot),
		batches: make(map[string]*entity.ProductionBatch),
		codes:   make(map[string]bool),
		users:   make(map[string]*entity.User),
	}
}

// Repos de conveniencia atados al mismo estado.
func (s *Store) Movements() *StockMovementRepo       { return &StockMovementRepo{s: s} }
func (s *Store) Lots() *LotRepo                      { return &LotRepo{s: s} }
func (s *Store) Batches() *ProductionBatchRepo       { return &ProductionBatchRepo{s: s} }
func (s *Store) Goods() *ProcessedGoodRepo           { return &ProcessedGoodRepo{s: s} }
func (s *Store) WasteTransfers() *WasteTransferRepo  { return &WasteTransferRepo{s: s} }
func (s *Store) Sequences() *SequenceRepo            { return &SequenceRepo{s: s} }
func (s *Store) Users() *UserRepo                    { return &UserRepo{s: s} }

// ── Libro de movimientos ──────────────────────────────────────────────────────

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

type StockMovementRepo struct{ s *Store }

func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *StockMovementRepo) ListByItem(itemType, itemID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ItemType != itemType || m.ItemID != itemID {
			continue
		}
		if from != nil && m.EffectiveDate.Before(*from) {
			continue
		}
		if to != nil && m.EffectiveDate.After(*to) {
			continue
		}
		cp := *m
		list = append(list, &cp)
	}
	sortMovements(list)
	return list, nil
}

func (r *StockMovementRepo) ListByReference(referenceType, referenceID string) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			cp := *m
			list = append(list, &cp)
		}
	}
	sortMovements(list)
	return list, nil
}

func sortMovements(list []*entity.StockMovement) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].EffectiveDate.Equal(list[j].EffectiveDate) {
			return list[i].EffectiveDate.Before(list[j].EffectiveDate)
		}
		return list[i].RecordedAt.Before(list[j].RecordedAt)
	})
}

// ── Lotes ─────────────────────────────────────────────────────────────────────

var _ repository.LotRepository = (*LotRepo)(nil)

type LotRepo struct{ s *Store }

func (r *LotRepo) Create(l *entity.Lot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.lots {
		if existing.Code == l.Code {
			return fmt.Errorf("%w: código de lote %s ya existe", domain.ErrIntegrityViolation, l.Code)
		}
	}
	cp := *l
	r.s.lots[l.ID] = &cp
	return nil
}

func (r *LotRepo) GetByID(id string) (*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// GetByIDForUpdate no bloquea filas en memoria; es equivalente a GetByID.
func (r *LotRepo) GetByIDForUpdate(id string) (*entity.Lot, error) {
	return r.GetByID(id)
}

func (r *LotRepo) GetByCode(code string) (*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lots {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *LotRepo) List(itemType string, includeArchived bool, limit, offset int) ([]*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Lot
	for _, l := range r.s.lots {
		if itemType != "" && l.ItemType != itemType {
			continue
		}
		if !includeArchived && l.Archived {
			continue
		}
		cp := *l
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return paginate(list, limit, offset), nil
}

func (r *LotRepo) UpdateAvailable(id string, available decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[id]
	if !ok {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	l.QuantityAvailable = available
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LotRepo) SetArchived(id string, archived bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[id]
	if !ok {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	l.Archived = archived
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// ── Batches ───────────────────────────────────────────────────────────────────

var _ repository.ProductionBatchRepository = (*ProductionBatchRepo)(nil)

type ProductionBatchRepo struct{ s *Store }

func (r *ProductionBatchRepo) Create(b *entity.ProductionBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.batches {
		if existing.Code == b.Code {
			return fmt.Errorf("%w: código de batch %s ya existe", domain.ErrIntegrityViolation, b.Code)
		}
	}
	cp := *b
	r.s.batches[b.ID] = &cp
	return nil
}

func (r *ProductionBatchRepo) GetByID(id string) (*entity.ProductionBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *ProductionBatchRepo) GetByIDForUpdate(id string) (*entity.ProductionBatch, error) {
	return r.GetByID(id)
}

func (r *ProductionBatchRepo) List(locked *bool, limit, offset int) ([]*entity.ProductionBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.ProductionBatch
	for _, b := range r.s.batches {
		if locked != nil && b.IsLocked != *locked {
			continue
		}
		cp := *b
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return paginate(list, limit, offset), nil
}

func (r *ProductionBatchRepo) Lock(b *entity.ProductionBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.batches[b.ID]
	if !ok {
		return fmt.Errorf("%w: batch %s", domain.ErrNotFound, b.ID)
	}
	if stored.IsLocked {
		return fmt.Errorf("%w: batch %s", domain.ErrBatchLocked, stored.Code)
	}
	stored.IsLocked = true
	stored.QAStatus = b.QAStatus
	stored.ProductionStart = b.ProductionStart
	stored.ProductionEnd = b.ProductionEnd
	stored.Notes = b.Notes
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ProductionBatchRepo) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok || b.IsLocked {
		return fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
	}
	delete(r.s.batches, id)
	return nil
}

func (r *ProductionBatchRepo) AddMaterial(m *entity.BatchMaterial) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.materials = append(r.s.materials, &cp)
	return nil
}

func (r *ProductionBatchRepo) GetMaterial(id string) (*entity.BatchMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.materials {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProductionBatchRepo) DeleteMaterial(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, m := range r.s.materials {
		if m.ID == id {
			r.s.materials = append(r.s.materials[:i], r.s.materials[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: línea %s", domain.ErrNotFound, id)
}

func (r *ProductionBatchRepo) ListMaterials(batchID string) ([]*entity.BatchMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.BatchMaterial
	for _, m := range r.s.materials {
		if m.BatchID == batchID {
			cp := *m
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *ProductionBatchRepo) ListMaterialsByLot(lotID string) ([]*entity.BatchMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.BatchMaterial
	for _, m := range r.s.materials {
		if m.LotID == lotID {
			cp := *m
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *ProductionBatchRepo) AddOutput(o *entity.BatchOutput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *o
	r.s.outputs = append(r.s.outputs, &cp)
	return nil
}

func (r *ProductionBatchRepo) GetOutput(id string) (*entity.BatchOutput, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.outputs {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProductionBatchRepo) UpdateOutput(o *entity.BatchOutput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.outputs {
		if existing.ID == o.ID {
			cp := *o
			cp.CreatedAt = existing.CreatedAt
			r.s.outputs[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("%w: salida %s", domain.ErrNotFound, o.ID)
}

func (r *ProductionBatchRepo) DeleteOutput(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, o := range r.s.outputs {
		if o.ID == id {
			r.s.outputs = append(r.s.outputs[:i], r.s.outputs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: salida %s", domain.ErrNotFound, id)
}

func (r *ProductionBatchRepo) ListOutputs(batchID string) ([]*entity.BatchOutput, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.BatchOutput
	for _, o := range r.s.outputs {
		if o.BatchID == batchID {
			cp := *o
			list = append(list, &cp)
		}
	}
	return list, nil
}

// ── Productos procesados ──────────────────────────────────────────────────────

var _ repository.ProcessedGoodRepository = (*ProcessedGoodRepo)(nil)

type ProcessedGoodRepo struct{ s *Store }

func (r *ProcessedGoodRepo) Create(g *entity.ProcessedGood) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *g
	r.s.goods = append(r.s.goods, &cp)
	return nil
}

func (r *ProcessedGoodRepo) ListByBatch(batchID string) ([]*entity.ProcessedGood, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.ProcessedGood
	for _, g := range r.s.goods {
		if g.BatchID == batchID {
			cp := *g
			list = append(list, &cp)
		}
	}
	return list, nil
}

// ── Mermas y traslados ────────────────────────────────────────────────────────

var _ repository.WasteTransferRepository = (*WasteTransferRepo)(nil)

type WasteTransferRepo struct{ s *Store }

func (r *WasteTransferRepo) CreateWaste(w *entity.WasteRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *w
	r.s.wastes = append(r.s.wastes, &cp)
	return nil
}

func (r *WasteTransferRepo) CreateTransfer(t *entity.TransferRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.transfers = append(r.s.transfers, &cp)
	return nil
}

func (r *WasteTransferRepo) ListWasteByLot(lotID string) ([]*entity.WasteRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.WasteRecord
	for _, w := range r.s.wastes {
		if w.LotID == lotID {
			cp := *w
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *WasteTransferRepo) ListTransfersByLot(lotID string) ([]*entity.TransferRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.TransferRecord
	for _, t := range r.s.transfers {
		if t.FromLotID == lotID || t.ToLotID == lotID {
			cp := *t
			list = append(list, &cp)
		}
	}
	return list, nil
}

// ── Secuencias ────────────────────────────────────────────────────────────────

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

type SequenceRepo struct{ s *Store }

func (r *SequenceRepo) MaxSuffix(prefix string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for code := range r.s.codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		n, err := strconv.Atoi(code[len(prefix):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func (r *SequenceRepo) Reserve(code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.codes[code] {
		return false, nil
	}
	r.s.codes[code] = true
	return true, nil
}

// ── Usuarios ──────────────────────────────────────────────────────────────────

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: %s", domain.ErrEmailAlreadyExists, u.Email)
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) FindByEmail(email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

// TxRunner en memoria: ejecuta la función con los repos del store, sin
// atomicidad real. Satisface los cuatro puertos transaccionales.
type TxRunner struct {
	s *Store
}

func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

func (t *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	lotRepo repository.LotRepository,
) error) error {
	return fn(t.s.Movements(), t.s.Lots())
}

func (t *TxRunner) RunLot(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	return fn(t.s.Lots(), t.s.Movements(), t.s.Sequences())
}

func (t *TxRunner) RunWasteTransfer(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	wtRepo repository.WasteTransferRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	return fn(t.s.Lots(), t.s.Movements(), t.s.WasteTransfers(), t.s.Sequences())
}

func (t *TxRunner) RunBatch(ctx context.Context, fn func(
	batchRepo repository.ProductionBatchRepository,
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	goodRepo repository.ProcessedGoodRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	return fn(t.s.Batches(), t.s.Lots(), t.s.Movements(), t.s.Goods(), t.s.Sequences())
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
