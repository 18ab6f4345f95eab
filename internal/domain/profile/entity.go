// Package profile contains the domain model for the signed-in user's
// own Steam profile card.
package profile

import "time"

// Profile is the consumer-facing profile record: persona, avatars,
// level, country and visibility for one Steam account.
type Profile struct {
	SteamID64                string     `json:"steamId64"`
	PersonaName              string     `json:"personaName"`
	SteamLevel               *int       `json:"steamLevel,omitempty"`
	AvatarSmall              string     `json:"avatarSmall,omitempty"`
	AvatarMedium             string     `json:"avatarMedium,omitempty"`
	AvatarFull               string     `json:"avatarFull,omitempty"`
	CountryCode              string     `json:"countryCode,omitempty"`
	CommunityVisibilityState int        `json:"communityVisibilityState"`
	PersonaState             *int       `json:"personaState,omitempty"`
	TimeCreatedUTC           *time.Time `json:"timeCreatedUtc,omitempty"`
	LastLogOffUTC            *time.Time `json:"lastLogOffUtc,omitempty"`
}
