package rewrite

import (
	"bytes"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// RewriteCSS tokenizes payload with a tolerant CSS tokenizer that preserves
// unknown tokens verbatim (spec §4.3.2), rewriting every url(...) token
// (quoted and unquoted) and every @import string. Invalid rules or
// declarations tokenize as their own (Bad*) token types and are copied
// through unchanged by the default case below, rather than dropped — a
// tokenizer-level failure on the very first token falls back to whole-
// payload passthrough (spec §7 ParseError policy). Byte order marks and
// charset declarations are untouched: they tokenize like any other
// content and are copied verbatim.
func (rw *Rewriter) RewriteCSS(d *Document, payload []byte) ([]byte, error) {
	z := css.NewTokenizer(parse.NewInputBytes(payload))

	var out bytes.Buffer
	pendingImport := false
	pendingURLFunc := false
	sawAnyToken := false

	for {
		tt, data := z.Next()
		if tt == css.ErrorToken {
			if err := z.Err(); err != nil && !sawAnyToken {
				return payload, err
			}
			break
		}
		sawAnyToken = true

		switch tt {
		case css.AtKeywordToken:
			out.Write(data)
			pendingImport = strings.EqualFold(string(data), "@import")
		case css.URLToken:
			out.WriteString(rw.rewriteURLToken(d, data))
			pendingImport = false
			pendingURLFunc = false
		case css.FunctionToken:
			out.Write(data)
			pendingURLFunc = strings.EqualFold(string(data), "url(")
		case css.RightParenthesisToken:
			out.Write(data)
			pendingURLFunc = false
		case css.StringToken:
			if pendingImport || pendingURLFunc {
				out.WriteString(rw.rewriteCSSString(d, data))
			} else {
				out.Write(data)
			}
			pendingImport = false
		case css.WhitespaceToken, css.CommentToken:
			out.Write(data)
		default:
			out.Write(data)
			pendingImport = false
			pendingURLFunc = false
		}
	}

	return out.Bytes(), nil
}

// rewriteURLToken rewrites the reference inside a single unquoted
// url(...) token, which the CSS tokenizer emits as one <url-token>
// covering the whole construct (quoted url("...") instead tokenizes as a
// FunctionToken + StringToken + RightParenthesisToken, handled by the
// pendingURLFunc branch above).
func (rw *Rewriter) rewriteURLToken(d *Document, data []byte) string {
	inner := data
	if bytes.HasPrefix(inner, []byte("url(")) && bytes.HasSuffix(inner, []byte(")")) {
		inner = inner[4 : len(inner)-1]
	}
	trimmed := bytes.TrimSpace(inner)
	var quote byte
	if len(trimmed) >= 2 && (trimmed[0] == '"' || trimmed[0] == '\'') && trimmed[len(trimmed)-1] == trimmed[0] {
		quote = trimmed[0]
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	rewritten, _ := rw.RewriteRef(d, string(trimmed))
	if quote != 0 {
		return "url(" + string(quote) + rewritten + string(quote) + ")"
	}
	return "url(" + rewritten + ")"
}

// rewriteCSSString rewrites the contents of a quoted string token
// (StringToken) that followed "url(" or "@import".
func (rw *Rewriter) rewriteCSSString(d *Document, data []byte) string {
	if len(data) < 2 {
		return string(data)
	}
	quote := data[0]
	inner := string(data[1 : len(data)-1])
	rewritten, _ := rw.RewriteRef(d, inner)
	return string(quote) + rewritten + string(quote)
}
