package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// LoadFile reads the question catalog from a JSON file shaped as
// {"category": [{"clave", "pregunta", "prioridad"}, ...], ...}.
func LoadFile(path string) (entities.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return entities.Catalog{}, apperrors.NewConfigurationError("failed to open question catalog "+path, err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a catalog keeping the categories in document order.
func Decode(r io.Reader) (entities.Catalog, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return entities.Catalog{}, err
	}

	var entries []entities.CategoryQuestions
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return entities.Catalog{}, apperrors.NewConfigurationError("malformed question catalog", err)
		}
		category, ok := tok.(string)
		if !ok {
			return entities.Catalog{}, apperrors.NewConfigurationError(fmt.Sprintf("unexpected token %v in question catalog", tok), nil)
		}

		var questions []entities.Question
		if err := dec.Decode(&questions); err != nil {
			return entities.Catalog{}, apperrors.NewConfigurationError("malformed questions for category "+category, err)
		}
		if err := validateQuestions(category, questions); err != nil {
			return entities.Catalog{}, err
		}

		entries = append(entries, entities.CategoryQuestions{Category: category, Questions: questions})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return entities.Catalog{}, err
	}

	return entities.NewCatalog(entries...), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return apperrors.NewConfigurationError("malformed question catalog", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return apperrors.NewConfigurationError(fmt.Sprintf("question catalog: expected %q, got %v", want, tok), nil)
	}
	return nil
}

func validateQuestions(category string, questions []entities.Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.Key == "" {
			return apperrors.NewConfigurationError(fmt.Sprintf("category %q question %d: missing clave", category, i), nil)
		}
		if q.Prompt == "" {
			return apperrors.NewConfigurationError(fmt.Sprintf("category %q question %q: missing pregunta", category, q.Key), nil)
		}
		if !q.Priority.Valid() {
			return apperrors.NewConfigurationError(fmt.Sprintf("category %q question %q: prioridad %d outside 1..5", category, q.Key, q.Priority), nil)
		}
		if _, dup := seen[q.Key]; dup {
			return apperrors.NewConfigurationError(fmt.Sprintf("category %q: duplicate clave %q", category, q.Key), nil)
		}
		seen[q.Key] = struct{}{}
	}
	return nil
}
