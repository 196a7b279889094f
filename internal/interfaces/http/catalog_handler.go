package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/application/usecase"
)

// CatalogHandler consultas del catálogo y costeo de kits (público).
type CatalogHandler struct {
	uc *usecase.CatalogUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *usecase.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// ListMaterials godoc
// @Summary      Listar materiales
// @Tags         materials
// @Produce      json
// @Param        q       query  string  false  "Filtro por código o descripción"
// @Param        limit   query  int     false  "Límite (máx. 500)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MaterialListResponse
// @Router       /api/materials [get]
func (h *CatalogHandler) ListMaterials(c *fiber.Ctx) error {
	var in dto.MaterialListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	return c.JSON(h.uc.ListMaterials(in))
}

// GetMaterial godoc
// @Summary      Obtener material por código
// @Tags         materials
// @Produce      json
// @Param        code  path  string  true  "Código del material"
// @Success      200  {object}  dto.MaterialResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{code} [get]
func (h *CatalogHandler) GetMaterial(c *fiber.Ctx) error {
	out, err := h.uc.GetMaterial(c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MaterialUsage godoc
// @Summary      Kits que usan un material
// @Tags         materials
// @Produce      json
// @Param        code  path  string  true  "Código del material"
// @Success      200  {object}  dto.MaterialUsageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{code}/kits [get]
func (h *CatalogHandler) MaterialUsage(c *fiber.Ctx) error {
	out, err := h.uc.MaterialUsage(c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnpricedMaterials godoc
// @Summary      Materiales sin precio
// @Tags         materials
// @Produce      json
// @Success      200  {array}  dto.MaterialResponse
// @Router       /api/materials/unpriced [get]
func (h *CatalogHandler) UnpricedMaterials(c *fiber.Ctx) error {
	return c.JSON(h.uc.UnpricedMaterials())
}

// ListKits godoc
// @Summary      Listar kits
// @Tags         kits
// @Produce      json
// @Param        q       query  string  false  "Filtro por código o nombre"
// @Param        limit   query  int     false  "Límite (máx. 500)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.KitListResponse
// @Router       /api/kits [get]
func (h *CatalogHandler) ListKits(c *fiber.Ctx) error {
	var in dto.KitListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	return c.JSON(h.uc.ListKits(in))
}

// GetKit godoc
// @Summary      Obtener kit con su composición
// @Tags         kits
// @Produce      json
// @Param        code  path  string  true  "Código del kit"
// @Success      200  {object}  dto.KitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/kits/{code} [get]
func (h *CatalogHandler) GetKit(c *fiber.Ctx) error {
	out, err := h.uc.GetKit(c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListServices godoc
// @Summary      Listar servicios
// @Tags         services
// @Produce      json
// @Success      200  {array}  dto.ServiceResponse
// @Router       /api/services [get]
func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	return c.JSON(h.uc.ListServices())
}

// GetService godoc
// @Summary      Obtener servicio por código
// @Tags         services
// @Produce      json
// @Param        code  path  string  true  "Código del servicio"
// @Success      200  {object}  dto.ServiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/services/{code} [get]
func (h *CatalogHandler) GetService(c *fiber.Ctx) error {
	out, err := h.uc.GetService(c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Conteos del catálogo
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Router       /api/stats [get]
func (h *CatalogHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.uc.Stats())
}

// DanglingReferences godoc
// @Summary      Líneas de composición con material ausente
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  dto.DanglingReferenceResponse
// @Router       /api/dangling [get]
func (h *CatalogHandler) DanglingReferences(c *fiber.Ctx) error {
	return c.JSON(h.uc.DanglingReferences())
}

// PriceKits godoc
// @Summary      Costear kits (lista de materiales)
// @Tags         bom
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PriceKitsRequest  true  "Kits a costear"
// @Success      200  {object}  dto.BOMResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bom [post]
func (h *CatalogHandler) PriceKits(c *fiber.Ctx) error {
	var in dto.PriceKitsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.PriceKits(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExportBOM godoc
// @Summary      Exportar lista de materiales (xlsx o pdf)
// @Tags         bom
// @Accept       json
// @Produce      application/pdf
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        format  query  string               false  "xlsx (por defecto) o pdf"
// @Param        body    body   dto.PriceKitsRequest  true   "Kits a costear"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bom/export [post]
func (h *CatalogHandler) ExportBOM(c *fiber.Ctx) error {
	var in dto.PriceKitsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.ExportBOM(c.UserContext(), c.Query("format", "xlsx"), in)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(doc.FileName))
	return c.Send(doc.Data)
}
