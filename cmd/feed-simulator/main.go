package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/shared/config"
	"github.com/kentsang666/football-ai-live/internal/shared/logger"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Métricas Prometheus para conexões e mensagens do feed simulado
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "simulator_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
	matchesFinished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_matches_finished_total",
		Help: "Partidas simuladas encerradas",
	})
)

// fixtureTemplate descreve uma partida do catálogo de simulação
type fixtureTemplate struct {
	League   string
	HomeTeam string
	AwayTeam string
	XGHome   float64
	XGAway   float64
	Style    [2]string
	Referee  string
}

var catalog = []fixtureTemplate{
	{League: "Premier League", HomeTeam: "Liverpool", AwayTeam: "Everton", XGHome: 1.9, XGAway: 0.9, Style: [2]string{"HIGH_PRESS", "LOW_BLOCK"}, Referee: "Anthony Taylor"},
	{League: "Serie A", HomeTeam: "Napoli", AwayTeam: "Torino", XGHome: 1.6, XGAway: 1.0, Style: [2]string{"POSSESSION", "COUNTER"}, Referee: "Daniele Orsato"},
	{League: "Bundesliga", HomeTeam: "Dortmund", AwayTeam: "Mainz", XGHome: 2.0, XGAway: 1.1, Style: [2]string{"HIGH_PRESS", "COUNTER"}, Referee: ""},
	{League: "Eredivisie", HomeTeam: "Feyenoord", AwayTeam: "Utrecht", XGHome: 1.8, XGAway: 1.2, Style: [2]string{"POSSESSION", "BALANCED"}, Referee: ""},
}

// matchState é o estado mutável de uma partida em andamento
type matchState struct {
	tpl       fixtureTemplate
	fixtureID string
	minute    int
	score     events.Score
	redsHome  int
	redsAway  int
	homeDA    int
	awayDA    int
	homeSoT   int
	awaySoT   int
	homeCorn  int
	awayCorn  int
}

// clientConn representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes conectados e o broadcast do feed
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// rnd gera número aleatório entre min e max
func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

// newMatch inicia uma partida do catálogo com fixture id sequencial
func newMatch(tpl fixtureTemplate, seq int) *matchState {
	return &matchState{
		tpl:       tpl,
		fixtureID: fmt.Sprintf("SIM_%s_%04d", tpl.HomeTeam, seq),
	}
}

// tick avança um minuto simulado: gols, vermelhos e estatísticas de pressão
func (m *matchState) tick() {
	m.minute++

	// chance de gol por minuto proporcional ao xG por 90'
	if rand.Float64() < m.tpl.XGHome/90 {
		m.score.Home++
	}
	if rand.Float64() < m.tpl.XGAway/90 {
		m.score.Away++
	}

	// vermelho é raro
	if rand.Float64() < 0.0005 {
		m.redsHome++
	}
	if rand.Float64() < 0.0005 {
		m.redsAway++
	}

	// pressão acumulada
	m.homeDA += rand.Intn(3)
	m.awayDA += rand.Intn(3)
	if rand.Float64() < 0.15 {
		m.homeSoT++
	}
	if rand.Float64() < 0.10 {
		m.awaySoT++
	}
	if rand.Float64() < 0.12 {
		m.homeCorn++
	}
	if rand.Float64() < 0.10 {
		m.awayCorn++
	}
}

// quotes gera as cotações do fornecedor com ruído em torno de um preço base
func (m *matchState) quotes() []events.Quote {
	// linha principal de handicap acompanha a força e o placar
	mainLine := -0.75
	if diff := m.score.Home - m.score.Away; diff > 0 {
		mainLine = -0.25
	} else if diff < 0 {
		mainLine = -1.25
	}

	return []events.Quote{
		{Market: "AH", Line: mainLine, Side: "Home", Odds: rnd(1.70, 2.30)},
		{Market: "AH", Line: mainLine, Side: "Away", Odds: rnd(1.70, 2.30)},
		{Market: "OU", Line: 2.5, Side: "Over", Odds: rnd(1.60, 2.40)},
		{Market: "OU", Line: 2.5, Side: "Under", Odds: rnd(1.60, 2.40)},
		{Market: "OU", Line: 3.25, Side: "Over", Odds: rnd(2.00, 3.00)},
	}
}

// snapshot monta o pacote do feed para o minuto corrente
func (m *matchState) snapshot(source string) events.MatchSnapshot {
	snap := events.MatchSnapshot{
		FixtureID: m.fixtureID,
		League:    m.tpl.League,
		HomeTeam:  m.tpl.HomeTeam,
		AwayTeam:  m.tpl.AwayTeam,

		Minute:       m.minute,
		Score:        m.score,
		RedCardsHome: m.redsHome,
		RedCardsAway: m.redsAway,

		BaseXGHome: m.tpl.XGHome,
		BaseXGAway: m.tpl.XGAway,

		HomeDangerousAttacks: m.homeDA,
		AwayDangerousAttacks: m.awayDA,
		HomeShotsOnTarget:    m.homeSoT,
		AwayShotsOnTarget:    m.awaySoT,
		HomeCorners:          m.homeCorn,
		AwayCorners:          m.awayCorn,

		Weather: "PERFECT",
		Referee: m.tpl.Referee,

		Quotes: m.quotes(),

		Timestamp: time.Now().UTC(),
		Source:    source,
	}
	snap.Style.Home = m.tpl.Style[0]
	snap.Style.Away = m.tpl.Style[1]

	// fonte shadow concorda na maioria dos ticks; diverge de vez em quando
	// para exercitar o gate de consenso do engine
	shadow := m.score
	if rand.Float64() < 0.02 {
		shadow.Home++
	}
	snap.SecondaryScore = &shadow

	return snap
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsMessagesSent, matchesFinished)

	h := newHub(log)

	// Simula as partidas e transmite o feed a cada 3 segundos (1 minuto de jogo)
	go func() {
		seq := 1
		matches := make([]*matchState, len(catalog))
		for i, tpl := range catalog {
			matches[i] = newMatch(tpl, seq)
		}

		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			for i, m := range matches {
				m.tick()

				if m.minute >= 90 {
					h.broadcast(events.FeedMessage{
						Type: events.FeedTypeResult,
						Result: &events.MatchResult{
							FixtureID:  m.fixtureID,
							FinalScore: m.score,
							FinishedAt: time.Now().UTC(),
							Source:     cfg.ServiceName,
						},
					})
					matchesFinished.Inc()
					log.Info("match finished",
						zap.String("fixture", m.fixtureID),
						zap.Int("home", m.score.Home),
						zap.Int("away", m.score.Away))

					seq++
					matches[i] = newMatch(m.tpl, seq)
					continue
				}

				snap := m.snapshot(cfg.ServiceName)
				h.broadcast(events.FeedMessage{
					Type:     events.FeedTypeSnapshot,
					Snapshot: &snap,
				})
			}
		}
	}()

	// ==== MUX PÚBLICO: /ws
	appMux := http.NewServeMux()
	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		// Mantém a conexão viva e remove o cliente ao desconectar
		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// ==== MUX DE MÉTRICAS: /healthz, /metrics
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("feed simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("feed simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/ws"))
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
