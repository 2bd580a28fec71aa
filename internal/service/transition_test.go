package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
)

func TestNormalizeStatusIdempotent(t *testing.T) {
	inputs := []string{"NUEVO", "Nuevo", "nuevo", " en_proceso ", "", "garbage", "RESUELTO"}
	for _, in := range inputs {
		once := models.NormalizeStatus(models.TypeReclamo, in)
		twice := models.NormalizeStatus(models.TypeReclamo, string(once))
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalizeStatusUnknownFallsBackToInitial(t *testing.T) {
	assert.Equal(t, models.StatusNuevo, models.NormalizeStatus(models.TypeReclamo, ""))
	assert.Equal(t, models.StatusNuevo, models.NormalizeStatus(models.TypeReclamo, "whatever"))
	assert.Equal(t, models.StatusIniciado, models.NormalizeStatus(models.TypeTramite, "nuevo"))
	assert.Equal(t, models.StatusIniciado, models.NormalizeStatus(models.TypeTramite, ""))
}

func TestReclamoRejectOnlyWhileUnassigned(t *testing.T) {
	assert.True(t, IsLegal(models.TypeReclamo, models.StatusNuevo, models.StatusRechazado))
	assert.True(t, IsLegal(models.TypeReclamo, models.StatusRecibido, models.StatusRechazado))
	assert.False(t, IsLegal(models.TypeReclamo, models.StatusAsignado, models.StatusRechazado))
	assert.False(t, IsLegal(models.TypeReclamo, models.StatusEnProceso, models.StatusRechazado))
}

func TestTramiteApprovedOnlyFinalizes(t *testing.T) {
	next := AllowedNext(models.TypeTramite, models.StatusAprobado)
	require.Equal(t, []models.Status{models.StatusFinalizado}, next)
	assert.False(t, IsLegal(models.TypeTramite, models.StatusAprobado, models.StatusRechazado))
	assert.True(t, IsLegal(models.TypeTramite, models.StatusEnProceso, models.StatusRechazado))
}

func TestTerminalStatesHaveNoSuccessors(t *testing.T) {
	assert.True(t, IsTerminal(models.TypeReclamo, models.StatusResuelto))
	assert.True(t, IsTerminal(models.TypeReclamo, models.StatusRechazado))
	assert.True(t, IsTerminal(models.TypeTramite, models.StatusFinalizado))
	assert.True(t, IsTerminal(models.TypeTramite, models.StatusRechazado))
	assert.False(t, IsTerminal(models.TypeTramite, models.StatusAprobado))
}

func TestRevertIsBackwardTransition(t *testing.T) {
	from, to, err := checkTransition(models.TypeReclamo, ActionRevert, models.StatusEnProceso)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnProceso, from)
	assert.Equal(t, models.StatusAsignado, to)

	from, to, err = checkTransition(models.TypeTramite, ActionRevert, models.StatusEnProceso)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnProceso, from)
	assert.Equal(t, models.StatusEnRevision, to)
}

func TestTramiteResolvePassesThroughAprobado(t *testing.T) {
	_, to, err := checkTransition(models.TypeTramite, ActionResolve, models.StatusEnProceso)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAprobado, to)

	_, to, err = checkTransition(models.TypeTramite, ActionResolve, models.StatusAprobado)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinalizado, to)

	// finalized directly from revision is never reachable
	_, _, err = checkTransition(models.TypeTramite, ActionResolve, models.StatusEnRevision)
	require.Error(t, err)
}

func TestCheckTransitionNormalizesUnknownStatus(t *testing.T) {
	// an unrecognized upstream token degrades to "as if newly created"
	from, to, err := checkTransition(models.TypeReclamo, ActionAccept, models.Status("WEIRD"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNuevo, from)
	assert.Equal(t, models.StatusRecibido, to)
}

func TestCheckTransitionRejectsIllegalAction(t *testing.T) {
	_, _, err := checkTransition(models.TypeReclamo, ActionStart, models.StatusNuevo)
	require.Error(t, err)

	_, _, err = checkTransition(models.TypeReclamo, ActionResolve, models.StatusResuelto)
	require.Error(t, err)
}
