package auth

// Claims representa la identidad extraída del token: quién es y qué rol tiene.
type Claims struct {
	UserID string
	Role   string
}
