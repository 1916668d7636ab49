package domain

import "time"

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
)

func ParsePresenceStatus(s string) PresenceStatus {
	switch PresenceStatus(s) {
	case PresenceOnline, PresenceAway, PresenceBusy:
		return PresenceStatus(s)
	default:
		return PresenceOffline
	}
}

type User struct {
	ID        string
	Name      string
	AvatarURL string
	Bio       string
	Status    PresenceStatus
	LastSeen  time.Time
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
