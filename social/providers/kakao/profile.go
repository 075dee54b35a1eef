package kakao

import (
	"strconv"

	"github.com/modomall/console/social"
)

type kakaoUserInfo struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email           string `json:"email"`
		IsEmailValid    bool   `json:"is_email_valid"`
		IsEmailVerified bool   `json:"is_email_verified"`
		Profile         struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func mapProfile(info *kakaoUserInfo) *social.SocialProfile {
	account := info.KakaoAccount

	raw := map[string]any{
		"id": info.ID,
	}
	if account.IsEmailValid {
		raw["is_email_valid"] = account.IsEmailValid
	}

	return &social.SocialProfile{
		ProviderUserID: strconv.FormatInt(info.ID, 10),
		Provider:       "kakao",
		Email:          account.Email,
		EmailVerified:  account.IsEmailVerified && account.IsEmailValid,
		Name:           account.Profile.Nickname,
		AvatarURL:      account.Profile.ProfileImageURL,
		Raw:            raw,
	}
}
