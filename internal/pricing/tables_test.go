package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeagueFactorLongestMatchWins(t *testing.T) {
	tbl := DefaultTables()

	// "Premier League Russia" contém "Premier League"; vence a chave mais longa
	assert.Equal(t, 0.90, tbl.leagueFactor("Premier League Russia"))
	assert.Equal(t, 1.05, tbl.leagueFactor("English Premier League"))
	assert.Equal(t, 1.0, tbl.leagueFactor("Veikkausliiga"))
	assert.Equal(t, 1.0, tbl.leagueFactor(""))
}

func TestRefereeFactorDynamicFirst(t *testing.T) {
	tbl := DefaultTables()

	assert.Equal(t, 1.33, tbl.refereeFactor("Anthony Taylor", 1.33))
	assert.Equal(t, 1.2, tbl.refereeFactor("Anthony Taylor", 0))
	assert.Equal(t, 1.0, tbl.refereeFactor("Zé Ninguém", 0))
	assert.Equal(t, 1.0, tbl.refereeFactor("", 0))
}

func TestClashFactors(t *testing.T) {
	tbl := DefaultTables()

	h, a := tbl.clashFactors(StylePossession, StyleCounter)
	assert.Equal(t, 0.95, h)
	assert.Equal(t, 1.15, a)

	h, a = tbl.clashFactors(StyleBalanced, StyleBalanced)
	assert.Equal(t, 1.0, h)
	assert.Equal(t, 1.0, a)

	h, a = tbl.clashFactors("", StyleCounter)
	assert.Equal(t, 1.0, h)
	assert.Equal(t, 1.0, a)
}

func TestLoadTablesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	yml := `
league_volatility:
  Brasileirão: 1.3
weather:
  RAIN: 1.10
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	tbl, err := LoadTables(path)
	require.NoError(t, err)

	// mapas presentes substituem a tabela inteira
	assert.Equal(t, 1.3, tbl.leagueFactor("Brasileirão"))
	assert.Equal(t, 1.0, tbl.leagueFactor("Premier League"))
	assert.Equal(t, 1.10, tbl.weatherFactor(WeatherRain))

	// tabelas ausentes no arquivo mantêm o default
	assert.Equal(t, 1.12, tbl.motivationFactor(MotivationTitleRace))
	assert.Equal(t, 1.0, tbl.Pressure.ShotsOnTarget)
}

func TestLoadTablesMissingFile(t *testing.T) {
	_, err := LoadTables("/nonexistent/tuning.yaml")
	assert.Error(t, err)

	tbl, err := LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, 1.05, tbl.leagueFactor("Premier League"))
}
