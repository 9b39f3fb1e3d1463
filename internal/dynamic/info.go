package dynamic

// Config is the configuration record emitted by info() and consumed by the
// in-page interception library (spec §6 "Dynamic helper configuration
// record"). Field names and JSON tags match the option names in spec §6's
// table exactly, since the in-page library reads them by name.
type Config struct {
	RewriteFunction string `json:"rewrite_function"`
	TopURL          string `json:"top_url"`
	URL             string `json:"url"`
	Prefix          string `json:"prefix"`
	StaticPrefix    string `json:"static_prefix"`
	WombatHost      string `json:"wombat_host"`
	WombatScheme    string `json:"wombat_scheme"`
	WombatSec       int    `json:"wombat_sec"`

	IsFramed         bool `json:"is_framed"`
	IsLive           bool `json:"is_live"`
	EnableAutoFetch  bool `json:"enable_auto_fetch"`
	ConvertPostToGet bool `json:"convert_post_to_get"`
	IsSW             bool `json:"isSW"`

	TargetFrame string `json:"target_frame"`

	// Present but unused by this core (spec §6): carried through as
	// empty/default values so the interception library's option schema
	// stays stable even though nothing in this repo populates them.
	Timestamp   string `json:"timestamp"`
	RequestTS   string `json:"request_ts"`
	WombatTS    string `json:"wombat_ts"`
	Coll        string `json:"coll"`
	ProxyMagic  string `json:"proxy_magic"`
	Mod         string `json:"mod"`
	WombatOpts  string `json:"wombat_opts"`
}

const staticAssetPrefixSuffix = "_zim_static/"

// Info implements spec §4.4's info(current_url, original_host,
// original_scheme, original_url, bundle_prefix) entry point.
func Info(currentURL, originalHost, originalScheme, originalURL, bundlePrefix string) Config {
	return Config{
		RewriteFunction:  "rewrite",
		TopURL:           currentURL,
		URL:              originalURL,
		Prefix:           bundlePrefix,
		StaticPrefix:     bundlePrefix + staticAssetPrefixSuffix,
		WombatHost:       originalHost,
		WombatScheme:     originalScheme,
		WombatSec:        0,
		IsFramed:         false,
		IsLive:           false,
		EnableAutoFetch:  false,
		ConvertPostToGet: false,
		IsSW:             false,
		TargetFrame:      "__wb_frame",
	}
}
