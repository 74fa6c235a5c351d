package content

import "github.com/unclebandit/listing-campaigns/internal/model"

// Limits are the per-platform caption constraints.
type Limits struct {
	MaxChars    int
	MaxHashtags int
}

var platformLimits = map[model.Platform]Limits{
	model.PlatformInstagram: {MaxChars: 2200, MaxHashtags: 30},
	model.PlatformFacebook:  {MaxChars: 63206, MaxHashtags: 10},
	model.PlatformLinkedIn:  {MaxChars: 3000, MaxHashtags: 5},
	model.PlatformTwitter:   {MaxChars: 280, MaxHashtags: 3},
	model.PlatformTikTok:    {MaxChars: 2200, MaxHashtags: 5},
}

// fallback for platforms added to settings before they get a row above
var defaultLimits = Limits{MaxChars: 2200, MaxHashtags: 5}

// LimitsFor returns the caption limits of p.
func LimitsFor(p model.Platform) Limits {
	if l, ok := platformLimits[p]; ok {
		return l
	}
	return defaultLimits
}
