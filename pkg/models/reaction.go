package models

// ReactionVote is one user's reaction of a given kind on a message.
type ReactionVote struct {
	VoteID     string `json:"vote_id"`
	ReactionID string `json:"reaction_id"`
	IsMine     bool   `json:"is_mine,omitempty"`
}

// ReactionSet is the append-only list of reaction votes on one message.
type ReactionSet []ReactionVote

// Add appends a vote to the set.
func (s ReactionSet) Add(v ReactionVote) ReactionSet {
	return append(s, v)
}

// Remove drops the vote with the given vote ID, if present.
func (s ReactionSet) Remove(voteID string) ReactionSet {
	out := s[:0]
	for _, v := range s {
		if v.VoteID != voteID {
			out = append(out, v)
		}
	}
	return out
}

// Count returns how many votes of the given reaction kind are present.
func (s ReactionSet) Count(reactionID string) int {
	n := 0
	for _, v := range s {
		if v.ReactionID == reactionID {
			n++
		}
	}
	return n
}

// Mine returns the local user's vote for the given reaction kind, if any.
func (s ReactionSet) Mine(reactionID string) (ReactionVote, bool) {
	for _, v := range s {
		if v.ReactionID == reactionID && v.IsMine {
			return v, true
		}
	}
	return ReactionVote{}, false
}
