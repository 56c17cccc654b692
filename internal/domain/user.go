// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxExternalIDLen = 64
	MaxUsernameLen   = 64
	MaxURLLen        = 2048
	MaxIconLen       = 16
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrExternalIDLong  = errors.New("external id too long")
	ErrURLTooLong      = errors.New("url too long")
	ErrIconTooLong     = errors.New("icon too long")
)

// Identity is what the identity provider vouches for in a signed token.
// ExternalID is stable across reconnects of the same person.
type Identity struct {
	ExternalID string
	Username   string
	ProfileURL string
	AvatarURL  string
	Icon       string
}

// NewIdentity validates presentation attributes before they are signed into
// a token. Lengths of username and icon are counted in runes.
func NewIdentity(externalID, username, profileURL, avatarURL, icon string) (Identity, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return Identity{}, ErrUsernameEmpty
	case utf8.RuneCountInString(username) > MaxUsernameLen:
		return Identity{}, ErrUsernameTooLong
	case len(externalID) > MaxExternalIDLen:
		return Identity{}, ErrExternalIDLong
	case len(profileURL) > MaxURLLen, len(avatarURL) > MaxURLLen:
		return Identity{}, ErrURLTooLong
	case utf8.RuneCountInString(icon) > MaxIconLen:
		return Identity{}, ErrIconTooLong
	}
	return Identity{
		ExternalID: externalID,
		Username:   username,
		ProfileURL: profileURL,
		AvatarURL:  avatarURL,
		Icon:       icon,
	}, nil
}

// UserView is the presence representation sent to clients.
type UserView struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	ProfileURL string `json:"profileUrl"`
	AvatarURL  string `json:"avatarUrl"`
	Icon       string `json:"utfIcon"`
}
