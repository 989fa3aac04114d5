package httpapi

import "net/http"

// handleCastVote records the caller's vote on a proposition. A null choice
// retracts; repeating the held choice also retracts (toggle).
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	propositionID, err := urlID(r, "propositionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req struct {
		Choice *bool `json:"choice"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	if err := s.votes.CastVote(r.Context(), propositionID, currentUserID(r), req.Choice); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTally returns aggregate counts for every proposition of a topic,
// plus the caller's own vote. Individual votes of other members are never
// part of the response.
func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	topicID, err := urlID(r, "topicID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tally, err := s.votes.Tally(r.Context(), topicID, currentUserID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tally)
}
