package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo persiste el catálogo completo en PostgreSQL (materials, kits, kit_composition, services).
type SnapshotRepo struct {
	tx *TxRunner
}

// NewSnapshotRepository construye el adaptador sobre el runner de transacciones.
func NewSnapshotRepository(tx *TxRunner) *SnapshotRepo {
	return &SnapshotRepo{tx: tx}
}

// Load lee las cuatro tablas dentro de una transacción de solo lectura (una sola foto).
func (r *SnapshotRepo) Load(ctx context.Context) (*entity.Snapshot, error) {
	snap := &entity.Snapshot{}
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := r.tx.Run(ctx, opts, func(q Querier) error {
		var err error
		if snap.Materials, err = loadMaterials(ctx, q); err != nil {
			return err
		}
		if snap.Kits, err = loadKits(ctx, q); err != nil {
			return err
		}
		if snap.Composition, err = loadComposition(ctx, q); err != nil {
			return err
		}
		snap.Services, err = loadServices(ctx, q)
		return err
	})
	if err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("esquema sin migrar: %w", err)
		}
		return nil, err
	}
	return snap, nil
}

func loadMaterials(ctx context.Context, q Querier) ([]entity.Material, error) {
	rows, err := q.Query(ctx, `SELECT code, description, unit, unit_price, confidence FROM materials ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var out []entity.Material
	for rows.Next() {
		var m entity.Material
		var conf int16
		if err := rows.Scan(&m.Code, &m.Description, &m.Unit, &m.UnitPrice, &conf); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		if m.Confidence, err = confidence("materials", m.Code, conf); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func loadKits(ctx context.Context, q Querier) ([]entity.KitSummary, error) {
	rows, err := q.Query(ctx, `
		SELECT k.kit_code, k.name, COUNT(c.material_code)
		FROM kits k LEFT JOIN kit_composition c ON c.kit_code = k.kit_code
		GROUP BY k.kit_code, k.name
		ORDER BY k.kit_code`)
	if err != nil {
		return nil, fmt.Errorf("list kits: %w", err)
	}
	defer rows.Close()

	var out []entity.KitSummary
	for rows.Next() {
		var k entity.KitSummary
		var lines int64
		if err := rows.Scan(&k.Code, &k.Name, &lines); err != nil {
			return nil, fmt.Errorf("scan kit: %w", err)
		}
		k.LineCount = int(lines)
		out = append(out, k)
	}
	return out, rows.Err()
}

func loadComposition(ctx context.Context, q Querier) ([]entity.CompositionLine, error) {
	rows, err := q.Query(ctx, `SELECT kit_code, material_code, quantity FROM kit_composition ORDER BY kit_code, material_code`)
	if err != nil {
		return nil, fmt.Errorf("list kit_composition: %w", err)
	}
	defer rows.Close()

	var out []entity.CompositionLine
	for rows.Next() {
		var l entity.CompositionLine
		if err := rows.Scan(&l.KitCode, &l.MaterialCode, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan kit_composition: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func loadServices(ctx context.Context, q Querier) ([]entity.Service, error) {
	rows, err := q.Query(ctx, `SELECT service_code, description, unit, gross_price, confidence FROM services ORDER BY service_code`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []entity.Service
	for rows.Next() {
		var s entity.Service
		var conf int16
		if err := rows.Scan(&s.Code, &s.Description, &s.Unit, &s.GrossPrice, &conf); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		if s.Confidence, err = confidence("services", s.Code, conf); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func confidence(table, key string, v int16) (entity.Confidence, error) {
	c := entity.Confidence(v)
	if int16(c) != v || !c.Valid() {
		return entity.ConfidenceUnknown, &domain.StoreCorruptionError{Table: table, Key: key, Reason: fmt.Sprintf("confianza fuera de rango: %d", v)}
	}
	return c, nil
}

// Save reemplaza el contenido de las tablas con el snapshot en una sola transacción (TRUNCATE + COPY).
func (r *SnapshotRepo) Save(ctx context.Context, snap *entity.Snapshot) error {
	return r.tx.Run(ctx, pgx.TxOptions{}, func(q Querier) error {
		if _, err := q.Exec(ctx, `TRUNCATE kit_composition, kits, materials, services`); err != nil {
			return fmt.Errorf("truncate catalog: %w", err)
		}

		_, err := q.CopyFrom(ctx, pgx.Identifier{"materials"},
			[]string{"code", "description", "unit", "unit_price", "confidence"},
			pgx.CopyFromSlice(len(snap.Materials), func(i int) ([]any, error) {
				m := snap.Materials[i]
				return []any{m.Code, m.Description, m.Unit, m.UnitPrice, int16(m.Confidence)}, nil
			}))
		if err != nil {
			return copyErr("materials", err)
		}

		_, err = q.CopyFrom(ctx, pgx.Identifier{"kits"},
			[]string{"kit_code", "name"},
			pgx.CopyFromSlice(len(snap.Kits), func(i int) ([]any, error) {
				return []any{snap.Kits[i].Code, snap.Kits[i].Name}, nil
			}))
		if err != nil {
			return copyErr("kits", err)
		}

		_, err = q.CopyFrom(ctx, pgx.Identifier{"kit_composition"},
			[]string{"kit_code", "material_code", "quantity"},
			pgx.CopyFromSlice(len(snap.Composition), func(i int) ([]any, error) {
				l := snap.Composition[i]
				return []any{l.KitCode, l.MaterialCode, l.Quantity}, nil
			}))
		if err != nil {
			return copyErr("kit_composition", err)
		}

		_, err = q.CopyFrom(ctx, pgx.Identifier{"services"},
			[]string{"service_code", "description", "unit", "gross_price", "confidence"},
			pgx.CopyFromSlice(len(snap.Services), func(i int) ([]any, error) {
				s := snap.Services[i]
				return []any{s.Code, s.Description, s.Unit, s.GrossPrice, int16(s.Confidence)}, nil
			}))
		if err != nil {
			return copyErr("services", err)
		}
		return nil
	})
}

func copyErr(table string, err error) error {
	if isIntegrityViolation(err) {
		return &domain.StoreCorruptionError{Table: table, Reason: err.Error()}
	}
	return fmt.Errorf("copy %s: %w", table, err)
}
