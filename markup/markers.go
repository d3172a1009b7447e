package markup

import "slices"

// Markers are the substrings used to infer outcomes from OPAC responses.
// They are an artifact of one particular OPAC deployment and are meant to be
// overridden from configuration when the upstream wording changes.
type Markers struct {
	LoginFailure      []string `mapstructure:"login_failure"`
	LoginSuccess      []string `mapstructure:"login_success"`
	SessionExpired    []string `mapstructure:"session_expired"`
	SessionExpiredURL []string `mapstructure:"session_expired_url"`
	NoResults         []string `mapstructure:"no_results"`
	RenewSuccess      []string `mapstructure:"renew_success"`
	Available         []string `mapstructure:"available"`
	CheckedOut        []string `mapstructure:"checked_out"`
}

// DefaultMarkers returns markers matching a stock Huiwen OPAC install
func DefaultMarkers() Markers {
	return Markers{
		LoginFailure:      []string{"密码错误", "读者证件不存在", "证件号或密码错误"},
		LoginSuccess:      []string{"logout.php", "注销"},
		SessionExpired:    []string{"请先登录", "您尚未登录"},
		SessionExpiredURL: []string{"login.php"},
		NoResults:         []string{"本馆没有您检索的图书", "您的该项记录为空", "此书刊可能正在订购中或者处理中"},
		RenewSuccess:      []string{"续借成功"},
		// checked-out markers are tested first: "不可借" contains "可借"
		Available:  []string{"可借"},
		CheckedOut: []string{"借出", "不可借", "已预约"},
	}
}

// withDefaults fills every empty list from DefaultMarkers
func (m Markers) withDefaults() Markers {
	d := DefaultMarkers()
	fill := func(dst *[]string, def []string) {
		if len(*dst) == 0 {
			*dst = slices.Clone(def)
		}
	}
	fill(&m.LoginFailure, d.LoginFailure)
	fill(&m.LoginSuccess, d.LoginSuccess)
	fill(&m.SessionExpired, d.SessionExpired)
	fill(&m.SessionExpiredURL, d.SessionExpiredURL)
	fill(&m.NoResults, d.NoResults)
	fill(&m.RenewSuccess, d.RenewSuccess)
	fill(&m.Available, d.Available)
	fill(&m.CheckedOut, d.CheckedOut)
	return m
}
