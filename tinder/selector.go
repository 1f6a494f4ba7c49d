package tinder

// Selector decides how to swipe on recommendations.
//
// A user is liked when their bio mentions one of Keywords or when one of
// their photos appears in a teaser (they already liked the account).
// Everyone else is passed when PassOthers is set and skipped otherwise.
type Selector struct {
	Keywords   []string
	PassOthers bool
	// teaserPhotos holds photo ids seen in teasers.
	teaserPhotos map[string]struct{}
}

// NewSelector returns a selector matching any of keywords.
func NewSelector(passOthers bool, keywords ...string) *Selector {
	return &Selector{Keywords: keywords, PassOthers: passOthers}
}

// UseTeasers records the photo ids of users who liked the account.
func (s *Selector) UseTeasers(teasers []Teaser) {
	s.teaserPhotos = make(map[string]struct{})
	for _, t := range teasers {
		for _, p := range t.User.Photos {
			if p.ID != "" {
				s.teaserPhotos[p.ID] = struct{}{}
			}
		}
	}
}

func (s *Selector) likedUs(u User) bool {
	for _, p := range u.Photos {
		if _, ok := s.teaserPhotos[p.ID]; ok {
			return true
		}
	}
	return false
}

// Decide returns swipe decisions for users, in order.
func (s *Selector) Decide(users []User) []SwipeDecision {
	var out []SwipeDecision
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		switch {
		case u.BioContains(s.Keywords...) || s.likedUs(u):
			out = append(out, SwipeDecision{UserID: u.ID, Action: ActionLike})
		case s.PassOthers:
			out = append(out, SwipeDecision{UserID: u.ID, Action: ActionPass})
		}
	}
	return out
}
