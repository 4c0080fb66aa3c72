package config

type TokenConf struct {
	AccessTokenExpiryHour  int
	RefreshTokenExpiryHour int
	AccessTokenSecret      string
	RefreshTokenSecret     string
}

func NewTokenConf() *TokenConf {
	conf := GetConfig()
	tc := &TokenConf{
		AccessTokenExpiryHour:  conf.Auth.AccessTokenExpiryHour,
		RefreshTokenExpiryHour: conf.Auth.RefreshTokenExpiryHour,
		AccessTokenSecret:      conf.Auth.AccessTokenSecret,
		RefreshTokenSecret:     conf.Auth.RefreshTokenSecret,
	}
	if tc.AccessTokenExpiryHour == 0 {
		tc.AccessTokenExpiryHour = 1
	}
	if tc.RefreshTokenExpiryHour == 0 {
		tc.RefreshTokenExpiryHour = 168
	}
	return tc
}
