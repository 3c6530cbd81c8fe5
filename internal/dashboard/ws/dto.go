package ws

// ClientMsg é uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// FixtureID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type      string `json:"type"`
	FixtureID string `json:"fixtureId"`
}

// PricingPush é o envelope de atualização enviado aos clientes inscritos.
// Espelha o payload publicado pelo engine no canal Pub/Sub.
type PricingPush struct {
	FixtureID string      `json:"fixtureId"`
	Payload   interface{} `json:"payload"`
}
