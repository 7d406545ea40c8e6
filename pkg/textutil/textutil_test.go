package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "notas(semestreatual)", NormalizeName("  Notas (Semestre\tAtual)\n"))
}

func TestContains(t *testing.T) {
	m := Contains("Média", "Final")
	require.True(t, m("Média Parcial"))
	require.True(t, m("Prova Final"))
	require.False(t, m("média"))
	require.False(t, m("Prova 1"))

	require.False(t, Contains("")("anything"))
}

func TestContainsFold(t *testing.T) {
	m := ContainsFold("Sessão Expirada")
	require.True(t, m("sua sessão   expirada, entre novamente"))
	require.False(t, m("sessão ativa"))

	require.False(t, ContainsFold(" ", "")("anything"))
}
