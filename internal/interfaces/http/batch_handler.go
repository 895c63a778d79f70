package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Planta-api/internal/application/batch"
	"github.com/jhoicas/Planta-api/internal/application/dto"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// BatchHandler maneja el ciclo de vida del batch de producción.
type BatchHandler struct {
	uc      *batch.UseCase
	reports *batch.ReportUseCase
}

// NewBatchHandler construye el handler de batches.
func NewBatchHandler(uc *batch.UseCase, reports *batch.ReportUseCase) *BatchHandler {
	return &BatchHandler{uc: uc, reports: reports}
}

// Create godoc
// @Summary      Abrir batch en borrador
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "business_date, notes"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	b, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(b, nil, nil))
}

// List godoc
// @Summary      Listar batches
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        locked  query  string  false  "true | false"
// @Param        limit   query  int     false  "máx. filas (default 20)"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {array}  dto.BatchResponse
// @Router       /api/batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	var locked *bool
	switch c.Query("locked") {
	case "true":
		v := true
		locked = &v
	case "false":
		v := false
		locked = &v
	}
	list, err := h.uc.List(locked, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBatchResponse(b, nil, nil))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de batch con líneas y salidas
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	b, materials, outputs, err := h.uc.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toBatchResponse(b, materials, outputs))
}

// Delete godoc
// @Summary      Borrar batch en borrador
// @Description  Postea un IN de reversa por cada línea de consumo antes de eliminar. Un batch bloqueado nunca es borrable.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [delete]
func (h *BatchHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "batch eliminado"})
}

// AddMaterial godoc
// @Summary      Registrar consumo de lote
// @Description  Valida el saldo del lote a la fecha de negocio del batch y postea el movimiento CONSUMPTION.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del batch"
// @Param        body  body  dto.AddMaterialRequest  true  "lot_id, quantity"
// @Success      201   {object}  dto.BatchMaterialResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/materials [post]
func (h *BatchHandler) AddMaterial(c *fiber.Ctx) error {
	var in dto.AddMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	line, err := h.uc.AddConsumedMaterial(c.Context(), c.Params("id"), in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(line))
}

// RemoveMaterial godoc
// @Summary      Deshacer consumo de lote
// @Description  Elimina la línea y postea un IN de reversa; el CONSUMPTION original queda en el libro.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID del batch"
// @Param        lineId  path  string  true  "ID de la línea de consumo"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/materials/{lineId} [delete]
func (h *BatchHandler) RemoveMaterial(c *fiber.Ctx) error {
	if err := h.uc.RemoveConsumedMaterial(c.Context(), c.Params("id"), c.Params("lineId"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "consumo revertido"})
}

// DeclareOutput godoc
// @Summary      Declarar salida del batch
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del batch"
// @Param        body  body  dto.OutputRequest  true  "name, category_tag, quantity, unit, size_label"
// @Success      201   {object}  dto.BatchOutputResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/outputs [post]
func (h *BatchHandler) DeclareOutput(c *fiber.Ctx) error {
	var in dto.OutputRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.DeclareOutput(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOutputResponse(out))
}

// UpdateOutput godoc
// @Summary      Actualizar salida declarada
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  string             true  "ID del batch"
// @Param        outputId  path  string             true  "ID de la salida"
// @Param        body      body  dto.OutputRequest  true  "name, category_tag, quantity, unit, size_label"
// @Success      200   {object}  dto.BatchOutputResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/outputs/{outputId} [put]
func (h *BatchHandler) UpdateOutput(c *fiber.Ctx) error {
	var in dto.OutputRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.UpdateOutput(c.Context(), c.Params("id"), c.Params("outputId"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toOutputResponse(out))
}

// RemoveOutput godoc
// @Summary      Eliminar salida declarada
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id        path  string  true  "ID del batch"
// @Param        outputId  path  string  true  "ID de la salida"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/outputs/{outputId} [delete]
func (h *BatchHandler) RemoveOutput(c *fiber.Ctx) error {
	if err := h.uc.RemoveOutput(c.Context(), c.Params("id"), c.Params("outputId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "salida eliminada"})
}

// Lock godoc
// @Summary      Bloquear batch con veredicto QA
// @Description  Una sola vía. Exige qa_status approved o rejected y salidas completas; con approved materializa los productos procesados.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del batch"
// @Param        body  body  dto.LockBatchRequest  true  "qa_status, production_start, production_end, notes"
// @Success      200   {array}   dto.ProcessedGoodResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/lock [post]
func (h *BatchHandler) Lock(c *fiber.Ctx) error {
	var in dto.LockBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	goods, err := h.uc.Lock(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ProcessedGoodResponse, 0, len(goods))
	for _, g := range goods {
		out = append(out, toGoodResponse(g))
	}
	return c.JSON(out)
}

// Goods godoc
// @Summary      Productos procesados del batch
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {array}  dto.ProcessedGoodResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/goods [get]
func (h *BatchHandler) Goods(c *fiber.Ctx) error {
	goods, err := h.uc.ProcessedGoods(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ProcessedGoodResponse, 0, len(goods))
	for _, g := range goods {
		out = append(out, toGoodResponse(g))
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Ficha de producción en PDF
// @Tags         batches
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del batch"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/report [get]
func (h *BatchHandler) Report(c *fiber.Ctx) error {
	pdfBytes, err := h.reports.Generate(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="ficha-produccion.pdf"`)
	return c.Send(pdfBytes)
}

// ── mapeo entidad → DTO ───────────────────────────────────────────────────────

func toBatchResponse(b *entity.ProductionBatch, materials []*entity.BatchMaterial, outputs []*entity.BatchOutput) dto.BatchResponse {
	out := dto.BatchResponse{
		ID:              b.ID,
		Code:            b.Code,
		IsLocked:        b.IsLocked,
		QAStatus:        b.QAStatus,
		BusinessDate:    b.BusinessDate,
		ProductionStart: b.ProductionStart,
		ProductionEnd:   b.ProductionEnd,
		Notes:           b.Notes,
		Materials:       make([]dto.BatchMaterialResponse, 0, len(materials)),
		Outputs:         make([]dto.BatchOutputResponse, 0, len(outputs)),
		CreatedAt:       b.CreatedAt,
	}
	for _, m := range materials {
		out.Materials = append(out.Materials, toMaterialResponse(m))
	}
	for _, o := range outputs {
		out.Outputs = append(out.Outputs, toOutputResponse(o))
	}
	return out
}

func toMaterialResponse(m *entity.BatchMaterial) dto.BatchMaterialResponse {
	return dto.BatchMaterialResponse{
		ID:        m.ID,
		BatchID:   m.BatchID,
		LotID:     m.LotID,
		LotCode:   m.LotCode,
		Quantity:  m.Quantity,
		Unit:      m.Unit,
		CreatedAt: m.CreatedAt,
	}
}

func toOutputResponse(o *entity.BatchOutput) dto.BatchOutputResponse {
	return dto.BatchOutputResponse{
		ID:          o.ID,
		BatchID:     o.BatchID,
		Name:        o.Name,
		CategoryTag: o.CategoryTag,
		Quantity:    o.Quantity,
		Unit:        o.Unit,
		SizeLabel:   o.SizeLabel,
	}
}

func toGoodResponse(g *entity.ProcessedGood) dto.ProcessedGoodResponse {
	return dto.ProcessedGoodResponse{
		ID:                g.ID,
		BatchID:           g.BatchID,
		OutputID:          g.OutputID,
		Name:              g.Name,
		CategoryTag:       g.CategoryTag,
		QuantityCreated:   g.QuantityCreated,
		QuantityAvailable: g.QuantityAvailable,
		Unit:              g.Unit,
		SizeLabel:         g.SizeLabel,
		CreatedAt:         g.CreatedAt,
	}
}
