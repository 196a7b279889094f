package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/application/usecase"
)

// IngestionHandler carga de lotes y re-seed (solo rol admin).
type IngestionHandler struct {
	uc *usecase.IngestionUseCase
}

// NewIngestionHandler construye el handler.
func NewIngestionHandler(uc *usecase.IngestionUseCase) *IngestionHandler {
	return &IngestionHandler{uc: uc}
}

// IngestBatch godoc
// @Summary      Ingestar un lote de registros
// @Description  Registros rechazados no abortan el lote; se informan en rejections.
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IngestBatchRequest  true  "Lote"
// @Success      200  {object}  dto.IngestionReportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/batches [post]
func (h *IngestionHandler) IngestBatch(c *fiber.Ctx) error {
	var in dto.IngestBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.IngestBatch(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reseed godoc
// @Summary      Reconstruir el catálogo desde cero
// @Description  Aplica las fuentes en orden sobre un catálogo vacío y publica el resultado de forma atómica.
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReseedRequest  true  "Fuentes en orden"
// @Success      200  {object}  dto.IngestionReportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/reseed [post]
func (h *IngestionHandler) Reseed(c *fiber.Ctx) error {
	var in dto.ReseedRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Reseed(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
