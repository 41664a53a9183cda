package model

import "time"

// Team is the proxy account shared by all of its members. BridgePassword and
// BridgeMnemonic are vault ciphertext; the mnemonic is the admin's copy.
type Team struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Admin          string `gorm:"uniqueIndex;not null" json:"admin"`
	Name           string `json:"name"`
	BridgeUser     string `gorm:"uniqueIndex;not null" json:"bridgeUser"`
	BridgePassword string `json:"-"`
	BridgeMnemonic string `json:"-"`
	TotalMembers   int    `gorm:"not null;default:0" json:"totalMembers"`
}

// TeamMember joins a user to a team. Email is unique across all teams, which is
// what keeps membership exclusive under concurrent inserts.
type TeamMember struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID         uint   `gorm:"index;not null" json:"idTeam"`
	Email          string `gorm:"uniqueIndex;not null" json:"user"`
	BridgePassword string `gorm:"not null" json:"-"`
	BridgeMnemonic string `gorm:"not null" json:"-"`
}

// TeamInvitation snapshots the credentials at invite time so it survives a
// later rotation of the admin's secrets.
type TeamInvitation struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TeamID         uint      `gorm:"uniqueIndex:idx_invitation_team_email;not null" json:"idTeam"`
	Email          string    `gorm:"uniqueIndex:idx_invitation_team_email;not null" json:"user"`
	Token          string    `gorm:"uniqueIndex;not null" json:"-"`
	BridgePassword string    `gorm:"not null" json:"-"`
	Mnemonic       string    `gorm:"not null" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
