package model

import "time"

// Team is a player-captained squad. A captain leads at most one team.
type Team struct {
	ID                uint64       `json:"id"`                  // teams.id
	CaptainID         uint64       `json:"captain_id"`          // teams.captain_id
	Name              string       `json:"name"`                // teams.name
	Level             *uint8       `json:"level,omitempty"`     // teams.level (1-10)
	LookingForPlayers bool         `json:"looking_for_players"` // teams.looking_for_players
	CreatedAt         time.Time    `json:"created_at"`          // teams.created_at
	Members           []TeamMember `json:"members,omitempty"`
}

type TeamMember struct {
	ID        uint64  `json:"id"`                 // team_members.id
	TeamID    uint64  `json:"team_id"`            // team_members.team_id
	Name      string  `json:"name"`               // team_members.name
	Age       *uint8  `json:"age,omitempty"`      // team_members.age
	Position  *string `json:"position,omitempty"` // team_members.position
	Level     *uint8  `json:"level,omitempty"`    // team_members.level
	IsCaptain bool    `json:"is_captain"`         // team_members.is_captain
}
