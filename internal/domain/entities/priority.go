package entities

import "fmt"

// Priority is a triage level: 1 is the most urgent, 5 the least.
type Priority int

const (
	PriorityImmediate  Priority = 1
	PriorityVeryUrgent Priority = 2
	PriorityUrgent     Priority = 3
	PriorityLessUrgent Priority = 4
	PriorityNonUrgent  Priority = 5
	DefaultPriority             = PriorityNonUrgent
	PriorityLevels              = 5
)

var priorityLabels = map[Priority]string{
	PriorityImmediate:  "🔴 Prioridad 1 - Atención INMEDIATA",
	PriorityVeryUrgent: "🟠 Prioridad 2 - Atención MUY URGENTE",
	PriorityUrgent:     "🟡 Prioridad 3 - Atención URGENTE",
	PriorityLessUrgent: "🟢 Prioridad 4 - Atención MENOS URGENTE",
	PriorityNonUrgent:  "🔵 Prioridad 5 - Atención NO URGENTE",
}

// Valid reports whether p is within 1..5.
func (p Priority) Valid() bool {
	return p >= PriorityImmediate && p <= PriorityNonUrgent
}

// Label returns the display label shown to clinicians.
func (p Priority) Label() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return fmt.Sprintf("Prioridad %d", int(p))
}

// Short returns the compact "Prioridad N" form.
func (p Priority) Short() string {
	return fmt.Sprintf("Prioridad %d", int(p))
}

// MoreUrgent returns the more urgent (numerically smaller) of two priorities.
func MoreUrgent(a, b Priority) Priority {
	if b < a {
		return b
	}
	return a
}
