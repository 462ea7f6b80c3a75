package triage

import (
	"strings"

	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

// Validation messages, returned to the client verbatim.
const (
	MsgInvalidName        = "Nombre inválido"
	MsgAgeOutOfRange      = "Edad fuera de rango"
	MsgInvalidTemperature = "Temperatura no válida"
	MsgBloodPressure      = "Presión arterial fuera de rango"
	MsgHeartRate          = "Frecuencia cardíaca anormal"
	MsgOxygen             = "Nivel de oxígeno fuera de rango"
)

// Validate collects every violated input constraint. It returns nil or a
// VALIDATION AppError whose Details lists all messages.
func Validate(sub *entities.Submission) error {
	var problems []string

	if strings.TrimSpace(sub.Name) == "" {
		problems = append(problems, MsgInvalidName)
	}
	if sub.Age < 1 || sub.Age > 120 {
		problems = append(problems, MsgAgeOutOfRange)
	}
	if !within(sub.Temperature, 30, 45) {
		problems = append(problems, MsgInvalidTemperature)
	}
	if !within(sub.Systolic, 40, 250) || !within(sub.Diastolic, 30, 200) {
		problems = append(problems, MsgBloodPressure)
	}
	if !within(sub.HeartRate, 30, 220) {
		problems = append(problems, MsgHeartRate)
	}
	if !within(sub.Oxygen, 50, 100) {
		problems = append(problems, MsgOxygen)
	}

	if len(problems) > 0 {
		return apperrors.NewValidationError("invalid triage submission", problems...)
	}
	return nil
}
