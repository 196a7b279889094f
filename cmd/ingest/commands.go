package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/application/ingestion"
	"github.com/jhoicas/Catalogo-api/internal/application/usecase"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Catalogo-api/pkg/config"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// cli estado compartido por los subcomandos.
type cli struct {
	out      io.Writer
	cfg      *config.Config
	log      *logger.Logger
	logLevel string
	dryRun   bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "ingest",
		Short:         "Carga fuentes de registros en el catálogo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			level := c.logLevel
			if level == "" {
				level = cfg.App.LogLevel
			}
			c.cfg = cfg
			c.log = logger.New(logger.Config{Env: cfg.App.Env, Level: level, Output: os.Stderr})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "nivel de log (por defecto LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "no guardar en PostgreSQL")

	root.AddCommand(c.batchCommand())
	root.AddCommand(c.reseedCommand())
	root.AddCommand(c.checkCommand())
	return root
}

func (c *cli) batchCommand() *cobra.Command {
	var source, confidence, encoding string
	cmd := &cobra.Command{
		Use:   "batch <registros.json>",
		Short: "Aplica un lote sobre el catálogo vigente",
		Long: `Aplica un archivo JSON con un arreglo de registros crudos sobre el catálogo
persistido. Los registros inválidos se informan y no abortan el lote.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSource(args[0], source, confidence, encoding)
			if err != nil {
				return err
			}
			uc, done, err := c.newIngestion(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			report, err := uc.IngestBatch(cmd.Context(), *src)
			if err != nil {
				return err
			}
			return c.print(report)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "nombre de la fuente (por defecto el del archivo)")
	cmd.Flags().StringVar(&confidence, "confidence", "", "generic_scrape, high_confidence_scrape, curated_registry o manual")
	cmd.Flags().StringVar(&encoding, "encoding", "utf-8", "utf-8, latin1 o windows-1252")
	_ = cmd.MarkFlagRequired("confidence")
	return cmd
}

func (c *cli) reseedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reseed <manifiesto.yaml>",
		Short: "Reconstruye el catálogo desde cero con las fuentes del manifiesto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := loadManifest(args[0])
			if err != nil {
				return err
			}
			uc, done, err := c.newIngestion(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			report, err := uc.Reseed(cmd.Context(), *sources)
			if err != nil {
				return err
			}
			return c.print(report)
		},
	}
}

func (c *cli) checkCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Carga el catálogo persistido y verifica su consistencia",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, done, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer done()

			catalog := usecase.NewCatalogUseCase(store, nil)
			out := checkOutput{Stats: catalog.Stats(), Dangling: catalog.DanglingReferences()}
			if err := c.print(out); err != nil {
				return err
			}
			if strict && out.Stats.DanglingLineCount > 0 {
				return fmt.Errorf("%d líneas de composición referencian materiales ausentes", out.Stats.DanglingLineCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "falla si hay referencias colgantes")
	return cmd
}

type checkOutput struct {
	Stats    dto.StatsResponse               `json:"stats"`
	Dangling []dto.DanglingReferenceResponse `json:"dangling"`
}

// newIngestion arma el caso de uso sobre el catálogo cargado desde PostgreSQL.
func (c *cli) newIngestion(ctx context.Context) (*usecase.IngestionUseCase, func(), error) {
	store, snapshots, done, err := c.open(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	coord := ingestion.NewCoordinator(store, snapshots, nil, c.log.Component("ingestion"), c.cfg.Catalog.MaxRejections)
	return usecase.NewIngestionUseCase(coord), done, nil
}

// open conecta, migra y restaura el catálogo. Con persist=false no devuelve repositorio.
func (c *cli) open(ctx context.Context, persist bool) (*memory.CatalogStore, repository.SnapshotRepository, func(), error) {
	store := memory.NewCatalogStore()
	if c.dryRun {
		c.log.Warn().Msg("dry-run: se trabaja sobre un catálogo vacío sin persistencia")
		return store, nil, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, c.cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.Migrate(ctx, c.cfg.DB.ConnectionString()); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	repo := postgres.NewSnapshotRepository(postgres.NewTxRunner(pool))
	snap, err := repo.Load(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	if err := store.Restore(snap); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	st := store.Stats()
	c.log.Info().
		Int("materials", st.Materials).
		Int("kits", st.Kits).
		Int("services", st.Services).
		Msg("catálogo cargado")

	if !persist {
		return store, nil, pool.Close, nil
	}
	return store, repo, pool.Close, nil
}

func (c *cli) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
