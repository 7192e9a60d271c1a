package model

import "time"

// Action is something a reader can do to a blog post that earns points.
type Action string

const (
	ActionView         Action = "view"
	ActionLike         Action = "like"
	ActionBookmark     Action = "bookmark"
	ActionShare        Action = "share"
	ActionComment      Action = "comment"
	ActionReadHalf     Action = "read_half"
	ActionReadComplete Action = "read_complete"
)

// actionPoints is the fixed award per action. Each (visitor, post, action)
// earns it at most once.
var actionPoints = map[Action]int{
	ActionView:         1,
	ActionLike:         5,
	ActionBookmark:     5,
	ActionShare:        10,
	ActionComment:      15,
	ActionReadHalf:     10,
	ActionReadComplete: 20,
}

// Points returns the award for a and whether a is a known action.
func (a Action) Points() (int, bool) {
	p, ok := actionPoints[a]
	return p, ok
}

// Actions lists every known action in a stable order.
func Actions() []Action {
	return []Action{
		ActionView, ActionLike, ActionBookmark, ActionShare,
		ActionComment, ActionReadHalf, ActionReadComplete,
	}
}

// Level is the reader tier derived from total points.
type Level string

const (
	LevelBronze   Level = "Bronze"
	LevelSilver   Level = "Silver"
	LevelGold     Level = "Gold"
	LevelPlatinum Level = "Platinum"
)

// LevelFor maps a point total onto a tier.
func LevelFor(points int) Level {
	switch {
	case points >= 500:
		return LevelPlatinum
	case points >= 250:
		return LevelGold
	case points >= 100:
		return LevelSilver
	default:
		return LevelBronze
	}
}

// Engagement is one awarded action in the ledger.
type Engagement struct {
	VisitorID string    `json:"visitorId"`
	PostID    string    `json:"postId"`
	Action    Action    `json:"action"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}
