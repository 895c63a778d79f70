package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Planta-api/internal/application/dto"
	"github.com/jhoicas/Planta-api/internal/application/wastetransfer"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// WasteTransferHandler maneja el registro de mermas y traslados.
type WasteTransferHandler struct {
	uc *wastetransfer.UseCase
}

// NewWasteTransferHandler construye el handler.
func NewWasteTransferHandler(uc *wastetransfer.UseCase) *WasteTransferHandler {
	return &WasteTransferHandler{uc: uc}
}

// RecordWaste godoc
// @Summary      Registrar merma
// @Description  Crea el registro de merma y su movimiento WASTE. Rechaza si la cantidad excede el saldo a la fecha efectiva.
// @Tags         waste-transfer
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordWasteRequest  true  "lot_id, quantity, reason, effective_date"
// @Success      201   {object}  dto.WasteRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/waste [post]
func (h *WasteTransferHandler) RecordWaste(c *fiber.Ctx) error {
	var in dto.RecordWasteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.uc.RecordWaste(c.Context(), in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toWasteResponse(record))
}

// Transfer godoc
// @Summary      Trasladar cantidad entre lotes
// @Description  Registra el par TRANSFER_OUT/TRANSFER_IN con un solo registro de traslado como referencia.
// @Tags         waste-transfer
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "from_lot_id, to_lot_id, quantity, reason, effective_date"
// @Success      201   {object}  dto.TransferRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *WasteTransferHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.uc.TransferBetweenLots(c.Context(), in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(record))
}

func toWasteResponse(w *entity.WasteRecord) dto.WasteRecordResponse {
	return dto.WasteRecordResponse{
		ID:            w.ID,
		Code:          w.Code,
		LotID:         w.LotID,
		LotCode:       w.LotCode,
		Quantity:      w.Quantity,
		Unit:          w.Unit,
		Reason:        w.Reason,
		EffectiveDate: w.EffectiveDate,
		CreatedAt:     w.CreatedAt,
	}
}

func toTransferResponse(t *entity.TransferRecord) dto.TransferRecordResponse {
	return dto.TransferRecordResponse{
		ID:            t.ID,
		Code:          t.Code,
		FromLotID:     t.FromLotID,
		FromLotCode:   t.FromLotCode,
		ToLotID:       t.ToLotID,
		ToLotCode:     t.ToLotCode,
		Quantity:      t.Quantity,
		Unit:          t.Unit,
		Reason:        t.Reason,
		EffectiveDate: t.EffectiveDate,
		CreatedAt:     t.CreatedAt,
	}
}
