package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Блочные теги окружаются переводами строки, чтобы структура документа
// не склеивалась в одну строку при извлечении текста.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true, "blockquote": true, "pre": true,
	"section": true, "article": true, "header": true, "footer": true,
	"hr": true, "en-note": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
}

var manyNewlines = regexp.MustCompile(`\n{3,}`)

// collapseNewlines сводит три и более перевода строки к двум и обрезает края.
func collapseNewlines(s string) string {
	return strings.TrimSpace(manyNewlines.ReplaceAllString(s, "\n\n"))
}

// mediaFunc вызывается для каждого элемента en-media и возвращает текст,
// который подставляется на его место.
type mediaFunc func(hash string) (string, error)

func renderText(n *html.Node, sb *strings.Builder, media mediaFunc) error {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return nil
	case html.ElementNode:
		name := strings.ToLower(n.Data)
		if skipTags[name] {
			return nil
		}
		if name == "br" {
			sb.WriteString("\n")
			return nil
		}
		if name == "en-media" && media != nil {
			md, err := media(strings.ToLower(attrValue(n, "hash")))
			if err != nil {
				return err
			}
			sb.WriteString(md)
			return nil
		}
		if blockTags[name] {
			sb.WriteString("\n")
			defer sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := renderText(c, sb, media); err != nil {
			return err
		}
	}
	return nil
}

// findElement ищет первый элемент с данным именем в глубину.
func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, name) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// collectMediaHashes собирает все ссылки en-media из тела заметки.
func collectMediaHashes(n *html.Node) []string {
	var hashes []string
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, "en-media") {
		if h := attrValue(n, "hash"); h != "" {
			hashes = append(hashes, strings.ToLower(h))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		hashes = append(hashes, collectMediaHashes(c)...)
	}
	return hashes
}
