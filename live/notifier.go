package live

import (
	"github.com/Dosada05/elo-ledger/models"
)

// Notifier adapts the hub to the ledger's post-commit notification
// hook: every applied or reversed match pushes the refreshed season
// leaderboard into the group's room.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

type matchEvent struct {
	Match       *models.Match    `json:"match"`
	Leaderboard []*models.Rating `json:"leaderboard"`
}

func (n *Notifier) MatchApplied(match *models.Match, leaderboard []*models.Rating) {
	n.hub.BroadcastToRoom(GroupRoom(match.GroupID), Message{
		Type:    "MATCH_APPLIED",
		Payload: matchEvent{Match: match, Leaderboard: leaderboard},
	})
}

func (n *Notifier) MatchReversed(match *models.Match, leaderboard []*models.Rating) {
	n.hub.BroadcastToRoom(GroupRoom(match.GroupID), Message{
		Type:    "MATCH_REVERSED",
		Payload: matchEvent{Match: match, Leaderboard: leaderboard},
	})
}
