package service

import (
	"fmt"

	"github.com/muni-digital/gestion-api/internal/models"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

// Lifecycle action verbs exposed to operators.
const (
	ActionAccept  = "accept"
	ActionAssign  = "assign"
	ActionStart   = "start"
	ActionResolve = "resolve"
	ActionReject  = "reject"
	ActionRevert  = "revert"
)

// reclamoTransitions: rejection is a side-exit only while the complaint is
// unassigned; once in execution it can resolve or fall back to assigned.
var reclamoTransitions = map[models.Status][]models.Status{
	models.StatusNuevo:     {models.StatusRecibido, models.StatusRechazado},
	models.StatusRecibido:  {models.StatusAsignado, models.StatusRechazado},
	models.StatusAsignado:  {models.StatusEnProceso},
	models.StatusEnProceso: {models.StatusResuelto, models.StatusAsignado},
	models.StatusResuelto:  {},
	models.StatusRechazado: {},
}

// tramiteTransitions: rejection stays reachable up to and including execution,
// but an approved procedure can only be finalized.
var tramiteTransitions = map[models.Status][]models.Status{
	models.StatusIniciado:   {models.StatusEnRevision, models.StatusRechazado},
	models.StatusEnRevision: {models.StatusEnProceso, models.StatusRechazado},
	models.StatusEnProceso:  {models.StatusAprobado, models.StatusEnRevision, models.StatusRechazado},
	models.StatusAprobado:   {models.StatusFinalizado},
	models.StatusFinalizado: {},
	models.StatusRechazado:  {},
}

// AllowedNext returns the legal successor statuses for the normalized current
// status. Terminal states yield an empty set.
func AllowedNext(t models.RequestType, status models.Status) []models.Status {
	table := reclamoTransitions
	if t == models.TypeTramite {
		table = tramiteTransitions
	}
	next, ok := table[models.NormalizeStatus(t, string(status))]
	if !ok {
		return nil
	}
	out := make([]models.Status, len(next))
	copy(out, next)
	return out
}

// IsLegal reports whether target is a legal successor of status.
func IsLegal(t models.RequestType, status, target models.Status) bool {
	for _, next := range AllowedNext(t, status) {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the normalized status admits no further action.
func IsTerminal(t models.RequestType, status models.Status) bool {
	return len(AllowedNext(t, status)) == 0
}

// actionTarget resolves the status an action drives the request toward, given
// its current (normalized) status. resolve is status-dependent for trámites:
// execution approves, approval finalizes.
func actionTarget(t models.RequestType, action string, current models.Status) (models.Status, error) {
	switch action {
	case ActionAccept:
		if t == models.TypeTramite {
			return models.StatusEnRevision, nil
		}
		return models.StatusRecibido, nil
	case ActionAssign:
		if t == models.TypeTramite {
			return models.StatusEnRevision, nil
		}
		return models.StatusAsignado, nil
	case ActionStart:
		return models.StatusEnProceso, nil
	case ActionResolve:
		if t == models.TypeTramite {
			if current == models.StatusAprobado {
				return models.StatusFinalizado, nil
			}
			return models.StatusAprobado, nil
		}
		return models.StatusResuelto, nil
	case ActionReject:
		return models.StatusRechazado, nil
	case ActionRevert:
		if t == models.TypeTramite {
			return models.StatusEnRevision, nil
		}
		return models.StatusAsignado, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action: %s", action))
}

// checkTransition normalizes the current status and verifies the action's
// target is legal, returning the (from, to) pair used for the snapshot.
func checkTransition(t models.RequestType, action string, rawStatus models.Status) (models.Status, models.Status, error) {
	from := models.NormalizeStatus(t, string(rawStatus))
	to, err := actionTarget(t, action, from)
	if err != nil {
		return "", "", err
	}
	if !IsLegal(t, from, to) {
		return "", "", appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot %s a %s in status %s", action, t, from))
	}
	return from, to, nil
}
