package rewrite

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// urlAttrs lists the URL-bearing attributes rewritten per element (spec
// §4.3.1). srcset gets special comma-splitting handling below.
var urlAttrs = map[string]bool{
	"href": true, "src": true, "srcset": true, "poster": true,
	"data": true, "action": true, "formaction": true, "background": true,
	"cite": true, "longdesc": true, "usemap": true,
}

var eventAttrs = map[string]bool{
	"onclick": true, "onload": true, "onerror": true, "onmouseover": true,
	"onmouseout": true, "onmousedown": true, "onmouseup": true,
	"onkeydown": true, "onkeyup": true, "onkeypress": true, "onchange": true,
	"onsubmit": true, "onfocus": true, "onblur": true, "onhover": true,
}

// HeaderInjector renders the Dynamic Rewriter Helper bootstrap snippet
// inserted at the top of <head> (spec §4.3.1). Supplied by the caller so
// internal/rewrite never imports internal/dynamic (which itself depends on
// internal/rewrite's pipeline) — avoiding an import cycle, per the
// collaborator boundary in spec §2.
type HeaderInjector func(d *Document) string

// CustomCSSLink, if non-empty, is appended at the very end of </head>
// (spec §4.3.1 "a user-supplied CSS link is inserted ... when configured").
// Populated by the surrounding collaborator (custom CSS injection is
// explicitly out of this core's scope per spec §1); this core only needs
// somewhere to splice the already-built tag in.
type HTMLOptions struct {
	HeaderSnippet HeaderInjector
	CustomCSSLink string

	// OnModuleScript is called with the resolved, canonicalized path of
	// every <script type="module" src=X> found, so the caller's module-
	// propagation state machine (spec §4.4 table) can mark X as JS-module
	// before its own record is processed.
	OnModuleScript func(canonicalPath string)
}

// RewriteHTML parses, rewrites, and re-serializes an HTML payload per spec
// §4.3.1. Parse failures fall back to passthrough with the original bytes
// (spec §7 ParseError policy); the caller is responsible for logging.
func (rw *Rewriter) RewriteHTML(d *Document, payload []byte, opts HTMLOptions) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return payload, err
	}

	var headNode *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Head && headNode == nil {
				headNode = n
			}
			rw.rewriteElement(d, n, opts)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if headNode != nil {
		if opts.HeaderSnippet != nil {
			injectHeaderSnippet(headNode, opts.HeaderSnippet(d))
		}
		if opts.CustomCSSLink != "" {
			appendToHead(headNode, opts.CustomCSSLink)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return payload, err
	}
	return buf.Bytes(), nil
}

func (rw *Rewriter) rewriteElement(d *Document, n *html.Node, opts HTMLOptions) {
	switch n.DataAtom {
	case atom.Base:
		for _, a := range n.Attr {
			if a.Key == "href" {
				d.SetBase(a.Val)
			}
		}
		return
	case atom.Script:
		dropIntegrity(n)
		rw.rewriteScriptNode(d, n, opts)
		return
	case atom.Style:
		rw.rewriteStyleNode(d, n)
	case atom.Link:
		dropIntegrity(n)
	case atom.Meta:
		rw.rewriteMetaRefresh(d, n)
		return
	}

	for i, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if eventAttrs[key] {
			rewritten, err := rw.RewriteJS(d, []byte(a.Val), JSClassic)
			if err == nil {
				n.Attr[i].Val = string(rewritten)
			}
			continue
		}
		if !urlAttrs[key] {
			continue
		}
		if key == "srcset" {
			n.Attr[i].Val = rw.rewriteSrcset(d, a.Val)
			continue
		}
		val := decodeEntities(a.Val)
		rewritten, _ := rw.RewriteRef(d, val)
		n.Attr[i].Val = rewritten
	}
}

func (rw *Rewriter) rewriteSrcset(d *Document, val string) string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		url := decodeEntities(fields[0])
		rewritten, _ := rw.RewriteRef(d, url)
		if len(fields) > 1 {
			out = append(out, rewritten+" "+strings.Join(fields[1:], " "))
		} else {
			out = append(out, rewritten)
		}
	}
	return strings.Join(out, ", ")
}

func (rw *Rewriter) rewriteMetaRefresh(d *Document, n *html.Node) {
	isRefresh := false
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) == "http-equiv" && strings.EqualFold(strings.TrimSpace(a.Val), "refresh") {
			isRefresh = true
		}
	}
	if !isRefresh {
		return
	}
	for i, a := range n.Attr {
		if strings.ToLower(a.Key) != "content" {
			continue
		}
		idx := strings.Index(strings.ToLower(a.Val), "url=")
		if idx < 0 {
			continue
		}
		prefix := a.Val[:idx+4]
		target := a.Val[idx+4:]
		rewritten, _ := rw.RewriteRef(d, decodeEntities(target))
		n.Attr[i].Val = prefix + rewritten
	}
}

func dropIntegrity(n *html.Node) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) == "integrity" {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func (rw *Rewriter) rewriteScriptNode(d *Document, n *html.Node, opts HTMLOptions) {
	var isModule bool
	var hasSrc bool
	var origSrc string
	for i, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "type":
			if strings.EqualFold(strings.TrimSpace(a.Val), "module") {
				isModule = true
			}
		case "src":
			hasSrc = true
			val := decodeEntities(a.Val)
			origSrc = val
			rewritten, _ := rw.RewriteRef(d, val)
			n.Attr[i].Val = rewritten
		}
	}
	if hasSrc {
		if isModule && opts.OnModuleScript != nil {
			if cp, ok := rw.ResolveAndCanonicalize(d, origSrc); ok {
				opts.OnModuleScript(cp)
			}
		}
		return
	}
	mode := JSClassic
	if isModule {
		mode = JSModule
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			rewritten, err := rw.RewriteJS(d, []byte(c.Data), mode)
			if err == nil {
				c.Data = string(rewritten)
			}
		}
	}
}

func (rw *Rewriter) rewriteStyleNode(d *Document, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			rewritten, err := rw.RewriteCSS(d, []byte(c.Data))
			if err == nil {
				c.Data = string(rewritten)
			}
		}
	}
}

func injectHeaderSnippet(head *html.Node, snippet string) {
	if snippet == "" {
		return
	}
	frag, err := html.ParseFragment(strings.NewReader(snippet), &html.Node{
		Type:     html.ElementNode,
		Data:     "head",
		DataAtom: atom.Head,
	})
	if err != nil {
		return
	}
	first := head.FirstChild
	for _, n := range frag {
		head.InsertBefore(n, first)
	}
}

func appendToHead(head *html.Node, tag string) {
	frag, err := html.ParseFragment(strings.NewReader(tag), &html.Node{
		Type:     html.ElementNode,
		Data:     "head",
		DataAtom: atom.Head,
	})
	if err != nil {
		return
	}
	for _, n := range frag {
		head.AppendChild(n)
	}
}

// decodeEntities decodes HTML character references (&amp;, &#NN;, &#xHH;)
// in an attribute value before the pipeline resolves it (spec §4.3.1);
// golang.org/x/net/html already decodes entities during attribute parsing,
// so this is a defensive no-op pass for values that arrived pre-decoded
// from a non-HTML-parser caller (e.g. a <meta refresh> content attribute,
// which net/html treats as opaque text).
func decodeEntities(s string) string {
	return html.UnescapeString(s)
}
