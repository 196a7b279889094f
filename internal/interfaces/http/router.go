package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/Catalogo-api/internal/application/usecase"
	"github.com/jhoicas/Catalogo-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CatalogUC   *usecase.CatalogUseCase
	IngestionUC *usecase.IngestionUseCase
	Metrics     http.Handler // opcional; se expone en /metrics
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Catálogo (público, solo lectura)
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	materials := api.Group("/materials")
	materials.Get("/", catalogHandler.ListMaterials)
	materials.Get("/unpriced", catalogHandler.UnpricedMaterials)
	materials.Get("/:code", catalogHandler.GetMaterial)
	materials.Get("/:code/kits", catalogHandler.MaterialUsage)

	kits := api.Group("/kits")
	kits.Get("/", catalogHandler.ListKits)
	kits.Get("/:code", catalogHandler.GetKit)

	services := api.Group("/services")
	services.Get("/", catalogHandler.ListServices)
	services.Get("/:code", catalogHandler.GetService)

	api.Get("/stats", catalogHandler.Stats)
	api.Get("/dangling", catalogHandler.DanglingReferences)

	// Costeo
	bom := api.Group("/bom")
	bom.Post("/", catalogHandler.PriceKits)
	bom.Post("/export", catalogHandler.ExportBOM)

	// Ingesta (requiere Bearer Token con rol admin)
	admin := api.Group("/admin", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), RequireRole(jwt.RoleAdmin))
	ingestionHandler := NewIngestionHandler(deps.IngestionUC)
	admin.Post("/batches", ingestionHandler.IngestBatch)
	admin.Post("/reseed", ingestionHandler.Reseed)
}
