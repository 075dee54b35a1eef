package google

import "github.com/modomall/console/social"

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
	HD            string `json:"hd"`
}

func mapProfile(info *googleUserInfo) *social.SocialProfile {
	name := info.Name
	if name == "" {
		name = info.GivenName
		if info.FamilyName != "" {
			if name != "" {
				name += " "
			}
			name += info.FamilyName
		}
	}

	raw := map[string]any{
		"sub": info.Sub,
	}
	if info.Locale != "" {
		raw["locale"] = info.Locale
	}
	if info.HD != "" {
		raw["hd"] = info.HD
	}

	return &social.SocialProfile{
		ProviderUserID: info.Sub,
		Provider:       "google",
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		Name:           name,
		AvatarURL:      info.Picture,
		Raw:            raw,
	}
}
