package dynamic

import (
	"fmt"
	"strings"

	"github.com/kiwix/warc2zim-rewriter/internal/fuzzy"
)

// Asset renders the Dynamic Rewriter Helper's JS module, embedded once in
// the bundle at StaticPathPrefix (spec §4.4, §6 "Reserved bundle paths").
// It is generated from fuzzy.DefaultRules rather than maintained as a
// separate hand-written file, so the "single source of truth" constraint
// in spec §4.2/§9 ("the same rule list ... must produce identical results
// in the offline engine and in the browser helper") holds by construction:
// there is only one rule table in the repo, and this function is the build
// step that projects it into the browser's regex dialect.
func Asset() []byte {
	var b strings.Builder
	b.WriteString(jsPrelude)
	b.WriteString("var FUZZY_RULES = [\n")
	for _, r := range fuzzy.DefaultRules {
		fmt.Fprintf(&b, "  {name: %q, match: %s, replace: %q},\n",
			r.Name, jsRegexLiteral(r.Match.String()), r.Replace)
	}
	b.WriteString("];\n")
	b.WriteString(jsBody)
	return []byte(b.String())
}

// jsRegexLiteral renders a Go regexp's source as a JS RegExp literal. The
// rule table is authored in the common subset both engines support (no
// lookaround, no match-time backreferences — see internal/fuzzy's doc
// comment), so the pattern source transfers verbatim; only the delimiters
// differ.
func jsRegexLiteral(pattern string) string {
	escaped := strings.ReplaceAll(pattern, "/", `\/`)
	return "/" + escaped + "/"
}

const jsPrelude = `// Generated from internal/fuzzy.DefaultRules — do not hand-edit.
// Dynamic Rewriter Helper: rewrite()/info() for URLs synthesized at
// replay time in the browser. Mirrors internal/rewrite + internal/canon's
// offline pipeline byte-for-byte (see DESIGN.md, "Shared rule source").
(function (global) {
"use strict";

function applyFuzzyRules(path) {
  for (var i = 0; i < FUZZY_RULES.length; i++) {
    var rule = FUZZY_RULES[i];
    if (rule.match.test(path)) {
      var out = path.replace(rule.match, rule.replace);
      if (out !== path) return out;
    }
  }
  return path;
}

`

const jsBody = `
// --- minimal punycode decoder (RFC 3492), used for IDNA host decoding ---
var PUNY_BASE = 36, PUNY_TMIN = 1, PUNY_TMAX = 26, PUNY_SKEW = 38,
    PUNY_DAMP = 700, PUNY_INITIAL_BIAS = 72, PUNY_INITIAL_N = 128;

function punyDecode(input) {
  var output = [], i = 0, n = PUNY_INITIAL_N, bias = PUNY_INITIAL_BIAS;
  var basic = input.lastIndexOf("-");
  if (basic < 0) basic = 0;
  for (var j = 0; j < basic; j++) output.push(input.charCodeAt(j));
  var index = basic > 0 ? basic + 1 : 0;
  while (index < input.length) {
    var oldi = i, w = 1;
    for (var k = PUNY_BASE; ; k += PUNY_BASE) {
      var digit = punyDigit(input.charCodeAt(index++));
      i += digit * w;
      var t = k <= bias ? PUNY_TMIN : (k >= bias + PUNY_TMAX ? PUNY_TMAX : k - bias);
      if (digit < t) break;
      w *= PUNY_BASE - t;
    }
    bias = punyAdapt(i - oldi, output.length + 1, oldi === 0);
    n += Math.floor(i / (output.length + 1));
    i %= (output.length + 1);
    output.splice(i, 0, n);
    i++;
  }
  return String.fromCodePoint.apply(null, output);
}

function punyDigit(code) {
  if (code - 48 < 10) return code - 22;
  if (code - 65 < 26) return code - 65;
  if (code - 97 < 26) return code - 97;
  return PUNY_BASE;
}

function punyAdapt(delta, numPoints, firstTime) {
  delta = firstTime ? Math.floor(delta / PUNY_DAMP) : delta >> 1;
  delta += Math.floor(delta / numPoints);
  var k = 0;
  while (delta > ((PUNY_BASE - PUNY_TMIN) * PUNY_TMAX) >> 1) {
    delta = Math.floor(delta / (PUNY_BASE - PUNY_TMIN));
    k += PUNY_BASE;
  }
  return k + Math.floor(((PUNY_BASE - PUNY_TMIN + 1) * delta) / (delta + PUNY_SKEW));
}

function decodeHost(host) {
  return host.toLowerCase().split(".").map(function (label) {
    if (label.indexOf("xn--") === 0) {
      try { return punyDecode(label.slice(4)); } catch (e) { return label; }
    }
    return label;
  }).join(".");
}

// --- canonicalize: mirrors internal/canon.Canonicalizer.Canonicalize ---
function canonicalize(rawUrl) {
  var u;
  try { u = new URL(rawUrl); } catch (e) { return null; }
  if (u.protocol !== "http:" && u.protocol !== "https:") return null;
  if (!u.hostname) return null;

  var host = decodeHost(u.hostname);
  var path = u.pathname;
  try { path = decodeURIComponent(path); } catch (e) { /* leave encoded */ }
  if (path === "") path = "/";

  var combined = path;
  if (u.search && u.search.length > 1) {
    var query = u.search.slice(1).replace(/\+/g, " ");
    try { query = decodeURIComponent(query); } catch (e) { /* leave as-is */ }
    combined = path + "?" + query;
  }
  combined = combined.replace(/\/{2,}/g, "/");

  return applyFuzzyRules(host + combined);
}

// --- percent-encode: mirrors internal/rewrite.PercentEncode ---
var UNRESERVED = /[A-Za-z0-9\-_.~'!*():@]/;

function percentEncodeResult(s) {
  var out = "";
  for (var i = 0; i < s.length; i++) {
    var c = s[i];
    if (UNRESERVED.test(c) || c === "/") { out += c; continue; }
    if (c === "?") { out += "%3F"; continue; }
    if (c === "=") { out += "%3D"; continue; }
    out += encodeURIComponent(c);
  }
  return out;
}

// --- already-rewritten heuristic: mirrors internal/rewrite.AlreadyRewritten ---
function alreadyRewritten(documentCanonicalPath, raw) {
  if (raw.indexOf("../") !== 0) return false;
  var segs = raw.split("/");
  var i = 0;
  while (i < segs.length && segs[i] === "..") i++;
  if (i >= segs.length || segs[i].indexOf(".") === -1) return false;
  var docSegs = documentCanonicalPath.split("/").filter(Boolean);
  var docDirDepth = docSegs.length > 0 ? docSegs.length - 1 : 0;
  return i === docDirDepth + 1;
}

function isNonNavigational(s) {
  if (s === "") return true;
  if (s[0] === "#" || s[0] === "{" || s[0] === "*") return true;
  var m = /^([a-zA-Z][a-zA-Z0-9+.\-]*):/.exec(s);
  if (m) {
    var scheme = m[1].toLowerCase();
    if (scheme !== "http" && scheme !== "https") return true;
  }
  return false;
}

// rewrite(url, [useRel, mod, doc]) — spec §4.4.
function rewrite(rawUrl, opts) {
  var s = String(rawUrl).trim();
  if (isNonNavigational(s)) return rawUrl;

  var boot = global.__zim_rewrite_boot || {};
  var docPath = "";
  try {
    var docUrl = new URL(boot.url);
    docPath = docUrl.host + docUrl.pathname;
  } catch (e) { /* no document url: depth 0 */ }

  if (alreadyRewritten(docPath, s)) return rawUrl;

  var base = boot.url || (global.location && global.location.href) || s;
  var resolved;
  try { resolved = new URL(s, base).href; } catch (e) { resolved = null; }

  var canonicalPath = resolved ? canonicalize(resolved) : null;
  if (canonicalPath === null) {
    // Best-effort re-encode of malformed input, then retry once.
    var reencoded = encodeURI(s);
    try { resolved = new URL(reencoded, base).href; } catch (e) { resolved = null; }
    canonicalPath = resolved ? canonicalize(resolved) : null;
    if (canonicalPath === null) return rawUrl;
  }

  var prefix = (global.__zim_rewrite_config && global.__zim_rewrite_config.prefix) || "/";
  return prefix + percentEncodeResult(canonicalPath);
}

// info(current_url, original_host, original_scheme, original_url, bundle_prefix)
// — spec §4.4/§6.
function info(currentUrl, originalHost, originalScheme, originalUrl, bundlePrefix) {
  var cfg = {
    rewrite_function: rewrite,
    top_url: currentUrl,
    url: originalUrl,
    prefix: bundlePrefix,
    static_prefix: bundlePrefix + "_zim_static/",
    wombat_host: originalHost,
    wombat_scheme: originalScheme,
    wombat_sec: 0,
    is_framed: false,
    is_live: false,
    enable_auto_fetch: false,
    convert_post_to_get: false,
    isSW: false,
    target_frame: "__wb_frame",
    timestamp: "", request_ts: "", wombat_ts: "", coll: "",
    proxy_magic: "", mod: "", wombat_opts: ""
  };
  global.__zim_rewrite_config = cfg;
  return cfg;
}

global.zimRewrite = { rewrite: rewrite, info: info, canonicalize: canonicalize };

var boot = global.__zim_rewrite_boot;
if (boot) info(boot.url, boot.host, boot.scheme, boot.url, "");

})(typeof window !== "undefined" ? window : this);
`
