package auth

// userIdentity adapts a User row (plus its federated-link flag) to the
// Identity interface.
type userIdentity struct {
	user  *User
	oauth bool
}

var _ Identity = userIdentity{}

// NewIdentity wraps a user record as an Identity. oauth marks whether
// the sign-in arrived through a federated provider.
func NewIdentity(user *User, oauth bool) Identity {
	return userIdentity{user: user, oauth: oauth}
}

func (i userIdentity) ID() string {
	if i.user == nil {
		return ""
	}
	return i.user.ID.String()
}

func (i userIdentity) Name() string {
	if i.user == nil {
		return ""
	}
	return i.user.Name
}

func (i userIdentity) Email() string {
	if i.user == nil {
		return ""
	}
	return i.user.Email
}

func (i userIdentity) Role() UserRole {
	if i.user == nil {
		return ""
	}
	return i.user.Role
}

func (i userIdentity) IsOAuth() bool {
	return i.oauth
}
