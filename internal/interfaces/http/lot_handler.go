package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Planta-api/internal/application/batch"
	"github.com/jhoicas/Planta-api/internal/application/dto"
	appledger "github.com/jhoicas/Planta-api/internal/application/ledger"
	"github.com/jhoicas/Planta-api/internal/application/lot"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// LotHandler maneja las peticiones HTTP de lotes y sus consultas de libro.
type LotHandler struct {
	lots    *lot.UseCase
	ledger  *appledger.Service
	batches *batch.UseCase
}

// NewLotHandler construye el handler de lotes.
func NewLotHandler(lots *lot.UseCase, ledger *appledger.Service, batches *batch.UseCase) *LotHandler {
	return &LotHandler{lots: lots, ledger: ledger, batches: batches}
}

// Intake godoc
// @Summary      Alta de lote (intake)
// @Description  Crea el lote, asigna su código y registra el movimiento IN inicial.
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeLotRequest  true  "item_type, name, unit, quantity, intake_date, supplier_ref"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Intake(c *fiber.Ctx) error {
	var in dto.IntakeLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	l, err := h.lots.Intake(c.Context(), in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLotResponse(l))
}

// List godoc
// @Summary      Listar lotes
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        item_type         query  string  false  "raw_material | recurring_product"
// @Param        include_archived  query  bool    false  "incluir lotes archivados"
// @Param        limit             query  int     false  "máx. filas (default 20)"
// @Param        offset            query  int     false  "desplazamiento"
// @Success      200  {array}  dto.LotResponse
// @Router       /api/lots [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.lots.List(c.Query("item_type"), c.QueryBool("include_archived"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(list))
	for _, l := range list {
		out = append(out, toLotResponse(l))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [get]
func (h *LotHandler) GetByID(c *fiber.Ctx) error {
	l, err := h.lots.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLotResponse(l))
}

// Archive godoc
// @Summary      Archivar lote
// @Description  Solo se permite con disponibilidad por debajo del umbral configurado.
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/archive [post]
func (h *LotHandler) Archive(c *fiber.Ctx) error {
	l, err := h.lots.Archive(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toLotResponse(l))
}

// Balance godoc
// @Summary      Saldo del lote a fecha de corte
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del lote"
// @Param        as_of  query  string  false  "fecha de corte YYYY-MM-DD (default hoy)"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/balance [get]
func (h *LotHandler) Balance(c *fiber.Ctx) error {
	l, err := h.lots.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "as_of debe ser YYYY-MM-DD"})
		}
	}
	balance, err := h.ledger.Balance(l.ItemType, l.ID, asOf)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ItemID: l.ID, AsOf: asOf, Balance: balance})
}

// Movements godoc
// @Summary      Movimientos del lote
// @Description  Historial del libro en orden (effective_date asc, recorded_at asc).
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del lote"
// @Param        from  query  string  false  "desde YYYY-MM-DD"
// @Param        to    query  string  false  "hasta YYYY-MM-DD"
// @Success      200  {array}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/movements [get]
func (h *LotHandler) Movements(c *fiber.Ctx) error {
	l, err := h.lots.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	movs, err := h.ledger.History(l.ItemType, l.ID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// Trail godoc
// @Summary      Historial con saldo acumulado
// @Description  Reconstrucción cronológica del lote fila a fila para auditoría.
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {array}  dto.TrailEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/trail [get]
func (h *LotHandler) Trail(c *fiber.Ctx) error {
	l, err := h.lots.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	trail, err := h.ledger.RunningBalanceTrail(l.ItemType, l.ID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TrailEntryResponse, 0, len(trail))
	for _, e := range trail {
		out = append(out, dto.TrailEntryResponse{
			Movement: toMovementResponse(e.Movement),
			Balance:  e.Balance,
		})
	}
	return c.JSON(out)
}

// BatchUsage godoc
// @Summary      Batches que consumieron el lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {array}  dto.BatchUsageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/batch-usage [get]
func (h *LotHandler) BatchUsage(c *fiber.Ctx) error {
	l, err := h.lots.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	usage, err := h.batches.BatchUsage(l.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(usage)
}

// WasteTransfers godoc
// @Summary      Mermas y traslados del lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  dto.WasteTransferHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/waste-transfers [get]
func (h *LotHandler) WasteTransfers(c *fiber.Ctx) error {
	waste, transfers, err := h.lots.WasteTransferHistory(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.WasteTransferHistoryResponse{
		Waste:     make([]dto.WasteRecordResponse, 0, len(waste)),
		Transfers: make([]dto.TransferRecordResponse, 0, len(transfers)),
	}
	for _, w := range waste {
		out.Waste = append(out.Waste, toWasteResponse(w))
	}
	for _, t := range transfers {
		out.Transfers = append(out.Transfers, toTransferResponse(t))
	}
	return c.JSON(out)
}

// ── mapeo entidad → DTO ───────────────────────────────────────────────────────

func toLotResponse(l *entity.Lot) dto.LotResponse {
	return dto.LotResponse{
		ID:                l.ID,
		Code:              l.Code,
		ItemType:          l.ItemType,
		Name:              l.Name,
		Unit:              l.Unit,
		QuantityReceived:  l.QuantityReceived,
		QuantityAvailable: l.QuantityAvailable,
		IntakeDate:        l.IntakeDate,
		SupplierRef:       l.SupplierRef,
		Archived:          l.Archived,
		CreatedAt:         l.CreatedAt,
	}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ItemType:      m.ItemType,
		ItemID:        m.ItemID,
		LotCode:       m.LotCode,
		Type:          m.Type,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		EffectiveDate: m.EffectiveDate,
		RecordedAt:    m.RecordedAt,
		ReferenceID:   m.ReferenceID,
		ReferenceType: m.ReferenceType,
	}
}

// parseDateRange lee from/to (YYYY-MM-DD) de la query.
func parseDateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "from debe ser YYYY-MM-DD")
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "to debe ser YYYY-MM-DD")
		}
		to = &t
	}
	return from, to, nil
}
