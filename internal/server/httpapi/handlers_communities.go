package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/hoaboard/internal/common"
)

// urlID parses a numeric path parameter. An unparseable value behaves like
// a missing resource.
func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (s *Server) handleCreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	community, err := s.communities.Create(r.Context(), currentUserID(r), req.Name, req.Address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, community)
}

func (s *Server) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := s.communities.ListForUser(r.Context(), currentUserID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, communities)
}

func (s *Server) handleGetCommunity(w http.ResponseWriter, r *http.Request) {
	communityID, err := urlID(r, "communityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	community, err := s.communities.Get(r.Context(), currentUserID(r), communityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, community)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	communityID, err := urlID(r, "communityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	members, err := s.communities.ListMembers(r.Context(), currentUserID(r), communityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleAddProperty(w http.ResponseWriter, r *http.Request) {
	communityID, err := urlID(r, "communityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req struct {
		Address string `json:"address"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	member, err := s.communities.AddProperty(r.Context(), currentUserID(r), communityID, req.Address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	memberID, err := urlID(r, "memberID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	token, err := s.communities.Invite(r.Context(), currentUserID(r), memberID, req.FullName, req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.mailer.SendInvitation(r.Context(), req.Email, token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	member, err := s.communities.AcceptInvitation(r.Context(), req.Token, currentUserID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleSetRoles(w http.ResponseWriter, r *http.Request) {
	memberID, err := urlID(r, "memberID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req struct {
		IsAdmin       bool `json:"isAdmin"`
		IsBoardMember bool `json:"isBoardMember"`
		IsModerator   bool `json:"isModerator"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	if err := s.communities.SetRoles(r.Context(), currentUserID(r), memberID, req.IsAdmin, req.IsBoardMember, req.IsModerator); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := urlID(r, "memberID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.communities.RemoveMember(r.Context(), currentUserID(r), memberID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	communityID, err := urlID(r, "communityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	includeArchived := r.URL.Query().Get("archived") == "true"

	topics, err := s.communities.ListTopics(r.Context(), currentUserID(r), communityID, includeArchived)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, topics)
}

type topicRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Propositions []string `json:"propositions"`
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	communityID, err := urlID(r, "communityID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req topicRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	topic, err := s.communities.CreateTopic(r.Context(), currentUserID(r), communityID, req.Title, req.Description, req.Propositions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, topic)
}

func (s *Server) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	topicID, err := urlID(r, "topicID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req topicRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	if err := s.communities.UpdateTopic(r.Context(), currentUserID(r), topicID, req.Title, req.Description, req.Propositions); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveTopic(w http.ResponseWriter, r *http.Request) {
	topicID, err := urlID(r, "topicID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.communities.ArchiveTopic(r.Context(), currentUserID(r), topicID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
