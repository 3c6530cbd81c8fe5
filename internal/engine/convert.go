package engine

import (
	"github.com/kentsang666/football-ai-live/internal/pricing"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// toPricingSnapshot projeta o evento do feed na visão interna do pipeline.
// Os fatores de momentum já vêm resolvidos pelo tracker.
func toPricingSnapshot(ev events.MatchSnapshot, homeMom, awayMom float64) pricing.MatchSnapshot {
	return pricing.MatchSnapshot{
		FixtureID: ev.FixtureID,
		Minute:    ev.Minute,
		Score:     pricing.Score{Home: ev.Score.Home, Away: ev.Score.Away},

		RedCardsHome: ev.RedCardsHome,
		RedCardsAway: ev.RedCardsAway,

		Ctx: pricing.PricingContext{
			League:   ev.League,
			HomeTeam: ev.HomeTeam,

			HomeMomentum: homeMom,
			AwayMomentum: awayMom,

			MotivationHome: ev.Motivation.Home,
			MotivationAway: ev.Motivation.Away,
			StyleHome:      ev.Style.Home,
			StyleAway:      ev.Style.Away,
			Weather:        ev.Weather,

			FatigueHome: ev.FatigueHome,
			FatigueAway: ev.FatigueAway,

			Referee:        ev.Referee,
			RefereePenalty: ev.RefereePenalty,

			HomeMissingKeys: ev.HomeMissingKeys,
			AwayMissingKeys: ev.AwayMissingKeys,
		},

		Timestamp: ev.Timestamp,
	}
}

func pressureStats(ev events.MatchSnapshot) (home, away pricing.PressureStats) {
	home = pricing.PressureStats{
		DangerousAttacks: ev.HomeDangerousAttacks,
		ShotsOnTarget:    ev.HomeShotsOnTarget,
		Corners:          ev.HomeCorners,
	}
	away = pricing.PressureStats{
		DangerousAttacks: ev.AwayDangerousAttacks,
		ShotsOnTarget:    ev.AwayShotsOnTarget,
		Corners:          ev.AwayCorners,
	}
	return home, away
}

func toPricingScore(s events.Score) pricing.Score {
	return pricing.Score{Home: s.Home, Away: s.Away}
}
