package fuzzy

import "regexp"

// DefaultRules is the single source of truth for the fuzzy rule list
// referenced in spec.md §4.2/§9: "authored once in a neutral data file ...
// identical results in the offline engine and in the browser helper". The
// browser helper has no copy of its own: internal/dynamic's Asset()
// (dynamic/asset.go) renders this slice, in this order, into the JS
// FUZZY_RULES table.
//
// Rules explicitly avoid catch-all patterns (spec.md §4.2).
var DefaultRules = []Rule{
	{
		Name:    "youtube-video-info",
		Match:   regexp.MustCompile(`^(?:www\.)?youtube\.com/get_video_info\?(?:.*&)?video_id=([^&]+).*$`),
		Replace: `youtube.fuzzy.replayweb.page/get_video_info?video_id=$1`,
	},
	{
		Name:    "youtube-watch",
		Match:   regexp.MustCompile(`^(?:www\.)?youtube\.com/watch\?(?:.*&)?v=([^&]+).*$`),
		Replace: `youtube.fuzzy.replayweb.page/watch?v=$1`,
	},
	{
		Name:    "ytimg-thumbnail",
		Match:   regexp.MustCompile(`^i\.ytimg\.com/vi/([^/]+)/.*$`),
		Replace: `i.ytimg.com.fuzzy.replayweb.page/vi/$1/thumbnail.jpg`,
	},
	{
		Name:    "vimeo-cdn-range",
		Match:   regexp.MustCompile(`^([a-z0-9-]+\.vimeocdn\.com)/.*[?&](range=[^&]+).*$`),
		Replace: `$1.fuzzy.replayweb.page/video?$2`,
	},
	{
		Name:    "cheatography-script-version",
		Match:   regexp.MustCompile(`^(www\.cheatography\.com/.*/js/.*\.js)\?ver=\d+$`),
		Replace: `$1`,
	},
	{
		Name:    "trim-numeric-query",
		Match:   regexp.MustCompile(`^([^?]+)\?\d+$`),
		Replace: `$1`,
	},
}
