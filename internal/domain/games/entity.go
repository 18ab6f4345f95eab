// Package games contains the domain model for the owned-games library
// view and the per-game detail page (achievements, store metadata,
// current player count).
package games

import "time"

// LibraryGame is one raw library entry as Steam reports it: minutes,
// not hours, and an icon hash rather than a URL.
type LibraryGame struct {
	AppID           int
	Name            string
	PlaytimeMinutes int64
	IconHash        string
}

// SchemaAchievement is one achievement definition from the game schema.
type SchemaAchievement struct {
	Name        string
	DisplayName string
	Description string
	Icon        string
	IconGray    string
}

// Schema holds the per-game schema pieces the detail view needs.
type Schema struct {
	GameName     string
	Achievements []SchemaAchievement
}

// UnlockState is one player's unlock state for a single achievement.
type UnlockState struct {
	Achieved   bool
	UnlockTime *int64 // unix seconds, nil or 0 when locked
}

// GameHours is one library entry with aggregated playtime in hours.
type GameHours struct {
	AppID       int     `json:"appId"`
	Name        string  `json:"name"`
	HoursTotal  float64 `json:"hoursTotal"`
	Hours2Weeks float64 `json:"hours2Weeks"`

	// Icon and logo URLs are derived from Steam's image hash; the raw
	// hash never leaves the backend.
	IconURL string `json:"img_icon_url,omitempty"`
	LogoURL string `json:"img_logo_url,omitempty"`
}

// Page is a generic pagination envelope matching the SPA's
// PageResultDto shape.
type Page[T any] struct {
	Items    []T    `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Sort     string `json:"sort,omitempty"`
	Q        string `json:"q,omitempty"`
}

// Achievement is one achievement merged from the game schema (labels,
// icons), the user's unlock state, and optionally the global unlock
// percentage.
type Achievement struct {
	APIName       string     `json:"apiName"`
	DisplayName   string     `json:"displayName,omitempty"`
	Description   string     `json:"description,omitempty"`
	Achieved      bool       `json:"achieved"`
	UnlockTime    *time.Time `json:"unlockTime,omitempty"`
	Icon          string     `json:"icon,omitempty"`
	IconGray      string     `json:"iconGray,omitempty"`
	GlobalPercent *float64   `json:"globalPercent,omitempty"`
}

// Platforms reports which desktop platforms the store lists for an app.
type Platforms struct {
	AppID   int  `json:"appId"`
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

// Details is the assembled per-game detail view.
type Details struct {
	AppID               int           `json:"appId"`
	Name                string        `json:"name,omitempty"`
	HeaderImage         string        `json:"headerImage,omitempty"`
	ShortDescription    string        `json:"shortDescription,omitempty"`
	DetailedDescription string        `json:"detailedDescription,omitempty"`
	AboutTheGame        string        `json:"aboutTheGame,omitempty"`
	Website             string        `json:"website,omitempty"`
	Developers          []string      `json:"developers,omitempty"`
	Publishers          []string      `json:"publishers,omitempty"`
	Genres              []string      `json:"genres,omitempty"`
	ReleaseDate         string        `json:"releaseDate,omitempty"`
	MetacriticScore     *int          `json:"metacriticScore,omitempty"`
	CurrentPlayers      *int          `json:"currentPlayers,omitempty"`
	Achievements        []Achievement `json:"achievements"`
	Platforms           *Platforms    `json:"platforms,omitempty"`
}
