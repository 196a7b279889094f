package entity

import (
	"fmt"
	"strings"
)

// Confidence nivel de confianza de una fuente de datos. Ordinal: mayor valor = más confiable.
type Confidence int8

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceGenericScrape
	ConfidenceHighScrape
	ConfidenceCuratedRegistry
	ConfidenceManual
)

var confidenceNames = map[Confidence]string{
	ConfidenceUnknown:         "unknown",
	ConfidenceGenericScrape:   "generic_scrape",
	ConfidenceHighScrape:      "high_confidence_scrape",
	ConfidenceCuratedRegistry: "curated_registry",
	ConfidenceManual:          "manual",
}

// String devuelve el nombre canónico (snake_case) del nivel.
func (c Confidence) String() string {
	if s, ok := confidenceNames[c]; ok {
		return s
	}
	return fmt.Sprintf("confidence(%d)", int8(c))
}

// Valid indica si el nivel está dentro del enum.
func (c Confidence) Valid() bool {
	return c >= ConfidenceUnknown && c <= ConfidenceManual
}

// ParseConfidence interpreta un nombre de nivel (case-insensitive; acepta guiones o espacios).
func ParseConfidence(s string) (Confidence, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for c, name := range confidenceNames {
		if name == key {
			return c, nil
		}
	}
	if key == "high_scrape" {
		return ConfidenceHighScrape, nil
	}
	return ConfidenceUnknown, fmt.Errorf("nivel de confianza desconocido: %q", s)
}

// MarshalText serializa como nombre (JSON/YAML).
func (c Confidence) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("nivel de confianza fuera de rango: %d", int8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText interpreta el nombre del nivel.
func (c *Confidence) UnmarshalText(b []byte) error {
	parsed, err := ParseConfidence(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
