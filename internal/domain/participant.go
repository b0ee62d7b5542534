package domain

import "time"

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// Participant is a user's membership in one session.
type Participant struct {
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	Role           Role      `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Roster keeps at most one participant per user id, in join order.
type Roster struct {
	members map[string]*Participant
	order   []string
}

func NewRoster() *Roster {
	return &Roster{members: make(map[string]*Participant)}
}

func (r *Roster) Get(userID string) (Participant, bool) {
	p, ok := r.members[userID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (r *Roster) Contains(userID string) bool {
	_, ok := r.members[userID]
	return ok
}

// Add registers p and reports false if the user is already present.
func (r *Roster) Add(p Participant) bool {
	if _, ok := r.members[p.UserID]; ok {
		return false
	}
	stored := p
	r.members[p.UserID] = &stored
	r.order = append(r.order, p.UserID)
	return true
}

func (r *Roster) Remove(userID string) (Participant, bool) {
	p, ok := r.members[userID]
	if !ok {
		return Participant{}, false
	}
	delete(r.members, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *p, true
}

func (r *Roster) Touch(userID string, now time.Time) bool {
	p, ok := r.members[userID]
	if !ok {
		return false
	}
	p.LastActivityAt = now.UTC()
	return true
}

func (r *Roster) Len() int {
	return len(r.members)
}

func (r *Roster) List() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.members[id])
	}
	return out
}
