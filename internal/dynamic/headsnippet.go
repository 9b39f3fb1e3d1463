package dynamic

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// StaticPathPrefix is the reserved bundle path under which the helper
// asset is stored (spec §6 "Reserved bundle paths"). It must never collide
// with a canonical path produced by the Canonicalizer.
const StaticPathPrefix = "_zim_static/"

// HeaderSnippet renders the bootstrap <script> inserted at the very top of
// <head> (spec §4.3.1), carrying the document's original scheme, host, and
// URL so the embedded asset's info() call can be initialized client-side.
// assetRelPath is the HTML document's relative path to the helper asset
// under StaticPathPrefix (cmd/warc2zim stores it as helper.js and computes
// this path with internal/rewrite.RelativeLink), so it is supplied by the
// caller rather than hardcoded here.
func HeaderSnippet(documentURL, assetRelPath string) string {
	u, err := url.Parse(documentURL)
	scheme, host := "https", ""
	if err == nil {
		if u.Scheme != "" {
			scheme = u.Scheme
		}
		host = u.Hostname()
	}
	boot := struct {
		URL    string `json:"url"`
		Host   string `json:"host"`
		Scheme string `json:"scheme"`
	}{URL: documentURL, Host: host, Scheme: scheme}

	payload, _ := json.Marshal(boot)
	return fmt.Sprintf(
		`<script>window.__zim_rewrite_boot = %s;</script>`+"\n"+
			`<script src="%s"></script>`,
		string(payload), assetRelPath,
	)
}
