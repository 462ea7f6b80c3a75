package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

func TestLoadGoldenCases_ValidFile(t *testing.T) {
	content := `[
		{"id": "c1", "paciente": {"nombre": "Ana", "edad": 40, "temp": 36.8, "pas": 120, "pad": 85, "frecuencia_cardiaca": 75, "oxigeno": 98, "descripcion": "resfriado"}, "prioridad_esperada": 5, "difficulty": "easy"},
		{"id": "c2", "paciente": {"nombre": "Luis", "edad": 70, "temp": 36.5, "pas": 120, "pad": 85, "frecuencia_cardiaca": 75, "oxigeno": 70, "descripcion": "no respira bien", "categoria": "respiratorio", "respuestas": {"disnea": "si"}}, "prioridad_esperada": 1, "difficulty": "medium"}
	]`
	path := writeTempFile(t, content)

	cases, err := LoadGoldenCases(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].ID != "c1" {
		t.Errorf("expected id c1, got %s", cases[0].ID)
	}
	if cases[0].ExpectedPriority != entities.PriorityNonUrgent {
		t.Errorf("expected priority 5, got %d", cases[0].ExpectedPriority)
	}
	if cases[1].Patient.Oxygen != 70 {
		t.Errorf("expected oxygen 70, got %v", cases[1].Patient.Oxygen)
	}
	if cases[1].Patient.Answers["disnea"] != "si" {
		t.Errorf("expected disnea answer, got %v", cases[1].Patient.Answers)
	}
}

func TestLoadGoldenCases_InvalidFile(t *testing.T) {
	_, err := LoadGoldenCases("/nonexistent/path.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGoldenCases_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, `not valid json`)
	_, err := LoadGoldenCases(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadGoldenCases_EmptyArray(t *testing.T) {
	path := writeTempFile(t, `[]`)
	cases, err := LoadGoldenCases(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cases) != 0 {
		t.Errorf("expected 0 cases, got %d", len(cases))
	}
}

func TestLoadGoldenCases_BundledFile(t *testing.T) {
	cases, err := LoadGoldenCases("../../config/golden_cases.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGoldenCases(cases); err != nil {
		t.Errorf("bundled cases are invalid: %v", err)
	}
}

func TestDifficulty_Validation(t *testing.T) {
	tests := []struct {
		difficulty Difficulty
		valid      bool
	}{
		{DifficultyEasy, true},
		{DifficultyMedium, true},
		{DifficultyHard, true},
		{Difficulty("impossible"), false},
		{Difficulty(""), false},
	}
	for _, tt := range tests {
		got := tt.difficulty.IsValid()
		if got != tt.valid {
			t.Errorf("Difficulty(%q).IsValid() = %v, want %v", tt.difficulty, got, tt.valid)
		}
	}
}

func TestValidateGoldenCases(t *testing.T) {
	tests := []struct {
		name  string
		cases []GoldenCase
	}{
		{"missing id", []GoldenCase{{ID: "", ExpectedPriority: 3, Difficulty: DifficultyEasy}}},
		{"priority out of range", []GoldenCase{{ID: "c1", ExpectedPriority: 0, Difficulty: DifficultyEasy}}},
		{"invalid difficulty", []GoldenCase{{ID: "c1", ExpectedPriority: 3, Difficulty: "impossible"}}},
		{"duplicate ids", []GoldenCase{
			{ID: "c1", ExpectedPriority: 3, Difficulty: DifficultyEasy},
			{ID: "c1", ExpectedPriority: 2, Difficulty: DifficultyHard},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateGoldenCases(tt.cases); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	ok := []GoldenCase{{ID: "c1", ExpectedPriority: 1, Difficulty: DifficultyHard}}
	if err := ValidateGoldenCases(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
