package rewrite

import "strings"

// MediaClass is one of {HTML, CSS, JS-classic, JS-module, opaque} (spec
// §4.3). Opaque payloads pass through the pipeline unchanged.
type MediaClass int

const (
	Opaque MediaClass = iota
	HTML
	CSS
	JSClassicClass
	JSModuleClass
)

// InferMediaClass implements spec §4.3's media-class signal: an
// authoritative record-type field when present, falling back to the
// declared media type. isModule is supplied by the caller's module
// discovery state (spec §4.4's state machine table), since that depends on
// cross-record discovery order the Static Rewriter itself has no view of.
func InferMediaClass(recordType, mediaType string, isModule bool) MediaClass {
	switch strings.ToLower(strings.TrimSpace(recordType)) {
	case "document":
		return HTML
	case "stylesheet":
		return CSS
	case "script":
		if isModule {
			return JSModuleClass
		}
		return JSClassicClass
	case "xhr", "fetch":
		return classifyByMediaType(mediaType, isModule)
	}
	return classifyByMediaType(mediaType, isModule)
}

func classifyByMediaType(mediaType string, isModule bool) MediaClass {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return HTML
	case mt == "text/css":
		return CSS
	case mt == "application/javascript" || mt == "text/javascript" ||
		mt == "application/x-javascript" || mt == "application/ecmascript":
		if isModule {
			return JSModuleClass
		}
		return JSClassicClass
	default:
		return Opaque
	}
}

// Rewrite dispatches to the appropriate sub-rewriter for class, per spec
// §2 pass 2: "the Static Rewriter is invoked if its media class is HTML,
// CSS, or JS". Opaque payloads are returned unchanged.
func (rw *Rewriter) Rewrite(d *Document, class MediaClass, payload []byte, opts HTMLOptions) ([]byte, error) {
	switch class {
	case HTML:
		return rw.RewriteHTML(d, payload, opts)
	case CSS:
		return rw.RewriteCSS(d, payload)
	case JSClassicClass:
		return rw.RewriteJS(d, payload, JSClassic)
	case JSModuleClass:
		return rw.RewriteJS(d, payload, JSModule)
	default:
		return payload, nil
	}
}
