package steam

import (
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/friends"
	"github.com/gametime-hub/steam-gametime-hub/pkg/timeutil"
)

// Wire DTOs for the Steam Web API. Field names mirror Steam's JSON,
// which mixes lower-case and snake_case; the mappers below translate
// into domain types so nothing upstream-shaped escapes this package.

type friendListResponse struct {
	FriendsList *struct {
		Friends []friendEdgeDTO `json:"friends"`
	} `json:"friendslist"`
}

type friendEdgeDTO struct {
	SteamID     string `json:"steamid"`
	FriendSince *int64 `json:"friend_since"`
}

func (d friendEdgeDTO) toDomain() friends.Edge {
	return friends.Edge{
		SteamID: d.SteamID,
		Since:   timeutil.FromUnixPtr(d.FriendSince),
	}
}

type playerSummariesResponse struct {
	Response *struct {
		Players []playerDTO `json:"players"`
	} `json:"response"`
}

type playerDTO struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	LocCountryCode           string `json:"loccountrycode"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	PersonaState             *int   `json:"personastate"`
	TimeCreated              *int64 `json:"timecreated"`
	LastLogOff               *int64 `json:"lastlogoff"`
	GameID                   string `json:"gameid"`
	GameExtraInfo            string `json:"gameextrainfo"`
}

func (d playerDTO) toDomain() friends.ProfileSummary {
	return friends.ProfileSummary{
		SteamID:                  d.SteamID,
		PersonaName:              d.PersonaName,
		AvatarSmall:              d.Avatar,
		AvatarMedium:             d.AvatarMedium,
		AvatarFull:               d.AvatarFull,
		CountryCode:              d.LocCountryCode,
		CommunityVisibilityState: d.CommunityVisibilityState,
		PersonaState:             d.PersonaState,
		TimeCreated:              timeutil.FromUnixPtr(d.TimeCreated),
		LastLogOff:               timeutil.FromUnixPtr(d.LastLogOff),
		GameID:                   d.GameID,
		GameName:                 d.GameExtraInfo,
	}
}

type ownedGamesResponse struct {
	Response *struct {
		GameCount int            `json:"game_count"`
		Games     []ownedGameDTO `json:"games"`
	} `json:"response"`
}

type ownedGameDTO struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"` // minutes
	ImgIconURL      string `json:"img_icon_url"`     // icon hash, not a URL
}

type recentlyPlayedResponse struct {
	Response *struct {
		TotalCount int             `json:"total_count"`
		Games      []recentGameDTO `json:"games"`
	} `json:"response"`
}

type recentGameDTO struct {
	AppID          int    `json:"appid"`
	Name           string `json:"name"`
	Playtime2Weeks *int64 `json:"playtime_2weeks"` // minutes
}

type steamLevelResponse struct {
	Response *struct {
		PlayerLevel *int `json:"player_level"`
	} `json:"response"`
}

type schemaForGameResponse struct {
	Game *struct {
		GameName           string `json:"gameName"`
		AvailableGameStats *struct {
			Achievements []schemaAchievementDTO `json:"achievements"`
		} `json:"availableGameStats"`
	} `json:"game"`
}

type schemaAchievementDTO struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icongray"`
}

type playerAchievementsResponse struct {
	PlayerStats *struct {
		Success      bool                   `json:"success"`
		Error        string                 `json:"error"`
		Achievements []playerAchievementDTO `json:"achievements"`
	} `json:"playerstats"`
}

type playerAchievementDTO struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime *int64 `json:"unlocktime"`
}

type globalPercentResponse struct {
	AchievementPercentages *struct {
		Achievements []globalPercentItemDTO `json:"achievements"`
	} `json:"achievementpercentages"`
}

type globalPercentItemDTO struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type currentPlayersResponse struct {
	Response *struct {
		PlayerCount *int `json:"player_count"`
		Result      int  `json:"result"`
	} `json:"response"`
}
