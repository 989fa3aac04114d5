package models

import "database/sql"

// MemberRow mirrors the members table. A row with no linked user is a
// pending invitation; its invitee PII is stored encrypted and the
// invitation token as a hash with its creation timestamp.
type MemberRow struct {
	ID                      int64
	CommunityID             int64
	UserID                  sql.NullInt64
	Address                 string
	EncryptedInviteFullName sql.NullString
	EncryptedInviteEmail    sql.NullString
	IsAdmin                 bool
	IsBoardMember           bool
	IsModerator             bool
	TokenHash               sql.NullString
	TokenCreatedAt          sql.NullTime
}

// Member is the public projection of a community membership.
type Member struct {
	ID             int64  `json:"id"`
	CommunityID    int64  `json:"communityId"`
	UserID         *int64 `json:"userId,omitempty"`
	Address        string `json:"address"`
	InviteFullName string `json:"inviteFullName,omitempty"`
	InviteEmail    string `json:"inviteEmail,omitempty"`
	IsAdmin        bool   `json:"isAdmin"`
	IsBoardMember  bool   `json:"isBoardMember"`
	IsModerator    bool   `json:"isModerator"`
}

// Community is a managed HOA community.
type Community struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
