package pricing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classes de motivação reconhecidas pela tabela default.
const (
	MotivationTitleRace  = "TITLE_RACE"
	MotivationRelegation = "RELEGATION"
	MotivationEuropeSpot = "EUROPE_SPOT"
	MotivationMidTable   = "MID_TABLE"
	MotivationFriendly   = "FRIENDLY"
	MotivationDerby      = "DERBY"
)

// Estilos táticos reconhecidos pela matriz de confronto.
const (
	StylePossession = "POSSESSION"
	StyleCounter    = "COUNTER"
	StyleHighPress  = "HIGH_PRESS"
	StyleLowBlock   = "LOW_BLOCK"
	StyleBalanced   = "BALANCED"
)

// Classes de clima reconhecidas.
const (
	WeatherRain      = "RAIN"
	WeatherHeavyRain = "HEAVY_RAIN"
	WeatherSnow      = "SNOW"
	WeatherHeat      = "HEAT"
	WeatherPerfect   = "PERFECT"
)

// ClashMod é o par de modificadores de um confronto de estilos (mandante, visitante).
type ClashMod struct {
	Home float64 `yaml:"home"`
	Away float64 `yaml:"away"`
}

// PressureWeights pondera os deltas de estatísticas no índice de pressão.
type PressureWeights struct {
	DangerousAttacks float64 `yaml:"dangerous_attacks"`
	ShotsOnTarget    float64 `yaml:"shots_on_target"`
	Corners          float64 `yaml:"corners"`
}

// Tables reúne as tabelas de lookup do pipeline de ajuste contextual.
// Todas têm default neutro 1.0 para chaves desconhecidas. Podem ser
// sobrescritas por arquivo YAML (TUNING_FILE).
type Tables struct {
	LeagueVolatility map[string]float64  `yaml:"league_volatility"`
	Motivation       map[string]float64  `yaml:"motivation"`
	Weather          map[string]float64  `yaml:"weather"`
	Fortress         map[string]float64  `yaml:"fortress"`
	Referees         map[string]float64  `yaml:"referees"` // fator de pênalti por árbitro
	StyleClash       map[string]ClashMod `yaml:"style_clash"` // chave "ESTILO_A|ESTILO_B"
	Pressure         PressureWeights     `yaml:"pressure"`
}

// DefaultTables devolve as tabelas calibradas de fábrica.
func DefaultTables() *Tables {
	return &Tables{
		LeagueVolatility: map[string]float64{
			// ligas voláteis / de muitos gols
			"Bundesliga": 1.15, "Eredivisie": 1.20, "A-League": 1.15,
			"Eliteserien": 1.12, "Allsvenskan": 1.10, "MLS": 1.10,
			"Super League Switzerland": 1.12,
			// ligas defensivas / de poucos gols
			"Ligue 2": 0.85, "Serie B Italy": 0.85, "Segunda Division": 0.88,
			"Primera Division Argentina": 0.85, "Super League Greece": 0.82,
			"Serie A Brazil": 0.90, "Premier League Russia": 0.90,
			// top 5, ajuste fino
			"Premier League": 1.05, "La Liga": 0.98, "Serie A": 1.02, "Ligue 1": 0.95,
		},
		Motivation: map[string]float64{
			MotivationTitleRace:  1.12,
			MotivationRelegation: 1.08,
			MotivationEuropeSpot: 1.05,
			MotivationMidTable:   0.90,
			MotivationFriendly:   0.85,
			MotivationDerby:      1.10,
		},
		Weather: map[string]float64{
			WeatherRain:      1.05,
			WeatherHeavyRain: 0.90,
			WeatherSnow:      0.85,
			WeatherHeat:      0.92,
			WeatherPerfect:   1.00,
		},
		Fortress: map[string]float64{
			"Liverpool":    1.15,
			"Dortmund":     1.15,
			"Galatasaray":  1.20,
			"Boca Juniors": 1.18,
			"Napoli":       1.12,
			"Man Utd":      1.05,
			"Real Madrid":  1.10,
		},
		Referees: map[string]float64{
			"Anthony Taylor":   1.2,
			"Michael Oliver":   1.1,
			"Mateu Lahoz":      1.4,
			"Daniele Orsato":   0.9,
			"Szymon Marciniak": 1.3,
			"Clement Turpin":   1.1,
		},
		StyleClash: map[string]ClashMod{
			// contra-ataque castiga linha alta; posse sofre com bloco baixo;
			// pressão alta desarma a posse
			clashKey(StylePossession, StyleCounter):   {Home: 0.95, Away: 1.15},
			clashKey(StyleCounter, StylePossession):   {Home: 1.15, Away: 0.95},
			clashKey(StylePossession, StyleLowBlock):  {Home: 0.88, Away: 0.90},
			clashKey(StyleLowBlock, StylePossession):  {Home: 0.90, Away: 0.88},
			clashKey(StyleHighPress, StylePossession): {Home: 1.12, Away: 0.92},
			clashKey(StylePossession, StyleHighPress): {Home: 0.92, Away: 1.12},
			clashKey(StyleHighPress, StyleLowBlock):   {Home: 1.05, Away: 0.90},
			clashKey(StyleLowBlock, StyleHighPress):   {Home: 0.90, Away: 1.05},
			clashKey(StyleCounter, StyleHighPress):    {Home: 1.10, Away: 1.10},
			clashKey(StyleHighPress, StyleCounter):    {Home: 1.10, Away: 1.10},
		},
		Pressure: PressureWeights{
			DangerousAttacks: 0.1,
			ShotsOnTarget:    1.0,
			Corners:          0.3,
		},
	}
}

// LoadTables carrega as tabelas default e aplica overrides de um YAML opcional.
// Mapas presentes no arquivo substituem a tabela inteira correspondente.
func LoadTables(path string) (*Tables, error) {
	t := DefaultTables()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	var over Tables
	if err := yaml.Unmarshal(b, &over); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}
	if over.LeagueVolatility != nil {
		t.LeagueVolatility = over.LeagueVolatility
	}
	if over.Motivation != nil {
		t.Motivation = over.Motivation
	}
	if over.Weather != nil {
		t.Weather = over.Weather
	}
	if over.Fortress != nil {
		t.Fortress = over.Fortress
	}
	if over.Referees != nil {
		t.Referees = over.Referees
	}
	if over.StyleClash != nil {
		t.StyleClash = over.StyleClash
	}
	if over.Pressure != (PressureWeights{}) {
		t.Pressure = over.Pressure
	}
	return t, nil
}

func clashKey(home, away string) string { return home + "|" + away }

// leagueFactor faz lookup por substring, já que nomes de liga variam entre
// fornecedores ("Premier League" vs "English Premier League"). Em caso de
// múltiplos matches vence a chave mais longa, para manter o resultado
// determinístico ("Premier League Russia" não pode cair em "Premier League").
func (t *Tables) leagueFactor(league string) float64 {
	if league == "" {
		return 1.0
	}
	return longestMatch(t.LeagueVolatility, league)
}

func longestMatch(table map[string]float64, name string) float64 {
	best := ""
	val := 1.0
	for key, v := range table {
		if strings.Contains(name, key) && len(key) > len(best) {
			best = key
			val = v
		}
	}
	return val
}

func (t *Tables) motivationFactor(class string) float64 {
	if v, ok := t.Motivation[class]; ok {
		return v
	}
	return 1.0
}

func (t *Tables) weatherFactor(class string) float64 {
	if v, ok := t.Weather[class]; ok {
		return v
	}
	return 1.0
}

func (t *Tables) fortressFactor(homeTeam string) float64 {
	if homeTeam == "" {
		return 1.0
	}
	return longestMatch(t.Fortress, homeTeam)
}

// refereeFactor prioriza a estatística dinâmica; cai na tabela estática e,
// por fim, no neutro.
func (t *Tables) refereeFactor(name string, dynamic float64) float64 {
	if dynamic > 0 {
		return dynamic
	}
	if name == "" {
		return 1.0
	}
	return longestMatch(t.Referees, name)
}

func (t *Tables) clashFactors(styleHome, styleAway string) (float64, float64) {
	if styleHome == "" || styleAway == "" {
		return 1.0, 1.0
	}
	if mod, ok := t.StyleClash[clashKey(styleHome, styleAway)]; ok {
		return mod.Home, mod.Away
	}
	return 1.0, 1.0
}
