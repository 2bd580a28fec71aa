package models

import "strings"

// RequestType distinguishes the two citizen request kinds.
type RequestType string

const (
	TypeReclamo RequestType = "reclamo"
	TypeTramite RequestType = "tramite"
)

// Status is the canonical lower-case lifecycle token of a request.
type Status string

// Reclamo statuses.
const (
	StatusNuevo     Status = "nuevo"
	StatusRecibido  Status = "recibido"
	StatusAsignado  Status = "asignado"
	StatusEnProceso Status = "en_proceso"
	StatusResuelto  Status = "resuelto"
	StatusRechazado Status = "rechazado"
)

// Tramite statuses. StatusEnProceso and StatusRechazado are shared.
const (
	StatusIniciado   Status = "iniciado"
	StatusEnRevision Status = "en_revision"
	StatusAprobado   Status = "aprobado"
	StatusFinalizado Status = "finalizado"
)

var reclamoStatuses = map[Status]struct{}{
	StatusNuevo:     {},
	StatusRecibido:  {},
	StatusAsignado:  {},
	StatusEnProceso: {},
	StatusResuelto:  {},
	StatusRechazado: {},
}

var tramiteStatuses = map[Status]struct{}{
	StatusIniciado:   {},
	StatusEnRevision: {},
	StatusEnProceso:  {},
	StatusAprobado:   {},
	StatusFinalizado: {},
	StatusRechazado:  {},
}

// InitialStatus returns the status a freshly created request of the type carries.
func InitialStatus(t RequestType) Status {
	if t == TypeTramite {
		return StatusIniciado
	}
	return StatusNuevo
}

// NormalizeStatus maps any externally received status value to the canonical
// lower-case token. Unknown tokens and the empty value degrade to the type's
// initial status instead of failing; idempotent for any input.
func NormalizeStatus(t RequestType, raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	known := reclamoStatuses
	if t == TypeTramite {
		known = tramiteStatuses
	}
	if _, ok := known[s]; ok {
		return s
	}
	return InitialStatus(t)
}
