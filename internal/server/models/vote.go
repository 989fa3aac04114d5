package models

// PropositionTally is the only vote data that ever crosses the service
// boundary: aggregate counts plus the requesting member's own choice.
// MyVote is nil when the requester has no recorded vote.
type PropositionTally struct {
	PropositionID int64  `json:"propositionId"`
	VotesUp       int64  `json:"votesUp"`
	VotesDown     int64  `json:"votesDown"`
	MyVote        *bool  `json:"myVote"`
	Description   string `json:"description"`
}
