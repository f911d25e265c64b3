package interaction

// Body is the document-wide style that drags suppress. It's a single global resource shared by every manager.
type Body struct {
	UserSelect string
}

// Suppressor hands out tokens that keep text selection disabled for as long as at least one of them is held.
// The first token captures the body's value and the last release restores exactly that value, so overlapping drags
// from different managers can't leave the body in the wrong state.
type Suppressor struct {
	body  *Body
	held  int
	prior string
}

func NewSuppressor(b *Body) *Suppressor {
	return &Suppressor{body: b}
}

// Token is a held suppression. The zero value and nil are valid and release nothing.
type Token struct {
	s        *Suppressor
	released bool
}

func (s *Suppressor) Acquire() *Token {
	if s.held == 0 {
		s.prior = s.body.UserSelect
		s.body.UserSelect = "none"
	}
	s.held++
	return &Token{s: s}
}

// Held returns the number of live tokens.
func (s *Suppressor) Held() int { return s.held }

// Release gives up the token. It may be called any number of times.
func (t *Token) Release() {
	if t == nil || t.s == nil || t.released {
		return
	}
	t.released = true
	s := t.s
	s.held--
	if s.held == 0 {
		s.body.UserSelect = s.prior
	}
}
