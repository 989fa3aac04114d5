package models

import "time"

// Topic is an announcement or a set of propositions posted to a community.
type Topic struct {
	ID             int64     `json:"id"`
	CommunityID    int64     `json:"communityId"`
	AuthorMemberID int64     `json:"authorMemberId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Proposition is a single votable item within a topic.
type Proposition struct {
	ID          int64  `json:"id"`
	TopicID     int64  `json:"topicId"`
	Description string `json:"description"`
}
