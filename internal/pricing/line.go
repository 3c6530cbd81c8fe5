package pricing

import (
	"fmt"
	"math"
)

// Line é uma linha de handicap/total em unidades de quarto de gol:
// -0.75 => -3, 0.5 => 2, 2.25 => 9. Comparações de win/push/loss viram
// comparações inteiras exatas, sem epsilon de ponto flutuante.
type Line int

// LineFromFloat converte uma linha decimal do feed para unidades de quarto.
// Valores fora da grade de quarto de gol são arredondados para o quarto
// mais próximo.
func LineFromFloat(v float64) Line {
	return Line(math.Round(v * 4))
}

// Float devolve a linha em gols, para exibição e contratos.
func (l Line) Float() float64 { return float64(l) / 4 }

// IsQuarter informa se a linha termina em .25/.75 (aposta dividida).
func (l Line) IsQuarter() bool {
	q := int(l) % 2
	return q != 0
}

// IsHalf informa se a linha termina em .5 — a única classe sem massa de push:
// linhas inteiras empatam no valor exato e linhas de quarto herdam o push da
// meia-linha inteira adjacente.
func (l Line) IsHalf() bool {
	q := int(l) % 4
	return q == 2 || q == -2
}

// Split devolve as duas meias-linhas adjacentes de uma linha de quarto.
// Chamar em linha não-quarto é erro de programação; devolve a própria linha
// duplicada para manter a aritmética estável.
func (l Line) Split() (Line, Line) {
	if !l.IsQuarter() {
		return l, l
	}
	return l - 1, l + 1
}

// Abs devolve o módulo da linha.
func (l Line) Abs() Line {
	if l < 0 {
		return -l
	}
	return l
}

func (l Line) String() string {
	return fmt.Sprintf("%g", l.Float())
}
