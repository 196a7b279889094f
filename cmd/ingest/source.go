package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// manifest fuentes de un re-seed, aplicadas en orden.
//
//	sources:
//	  - name: planilla_2023
//	    file: planilla.json
//	    confidence: curated_registry
//	    encoding: latin1
type manifest struct {
	Sources []manifestSource `yaml:"sources"`
}

type manifestSource struct {
	Name       string `yaml:"name"`
	File       string `yaml:"file"`
	Confidence string `yaml:"confidence"`
	Encoding   string `yaml:"encoding"`
}

// loadManifest lee el manifiesto y resuelve cada archivo relativo a su directorio.
func loadManifest(path string) (*dto.ReseedRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer manifiesto: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifiesto %s: %w", path, err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("manifiesto %s: sin fuentes", path)
	}

	base := filepath.Dir(path)
	out := &dto.ReseedRequest{Sources: make([]dto.IngestBatchRequest, 0, len(m.Sources))}
	for i, s := range m.Sources {
		if s.File == "" {
			return nil, fmt.Errorf("manifiesto %s: fuente %d sin archivo", path, i)
		}
		file := s.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		src, err := loadSource(file, s.Name, s.Confidence, s.Encoding)
		if err != nil {
			return nil, err
		}
		out.Sources = append(out.Sources, *src)
	}
	return out, nil
}

// loadSource lee un archivo JSON con un arreglo de registros crudos.
func loadSource(path, name, confidence, encoding string) (*dto.IngestBatchRequest, error) {
	if _, err := entity.ParseConfidence(confidence); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir fuente: %w", err)
	}
	defer f.Close()

	records, err := readRecords(f, encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &dto.IngestBatchRequest{Source: name, Confidence: confidence, Records: records}, nil
}

// readRecords decodifica registros; encoding vacío o utf-8 no transforma la entrada.
func readRecords(r io.Reader, encoding string) ([]entity.RawRecord, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf8", "utf-8":
	case "latin1", "iso-8859-1", "iso8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return nil, fmt.Errorf("codificación no soportada: %q", encoding)
	}
	var records []entity.RawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decodificar registros: %w", err)
	}
	return records, nil
}
