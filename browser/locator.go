package browser

import (
	"fmt"
	"strings"
)

// Strategy is the query language a Locator is expressed in. Every backend supports both.
type Strategy int

const (
	StrategyCSS Strategy = iota
	StrategyXPath
)

// Locator identifies elements on a page.
type Locator struct {
	Strategy Strategy
	Query    string
	desc     string
}

func (l Locator) String() string {
	if l.desc != "" {
		return l.desc
	}
	if l.Strategy == StrategyXPath {
		return fmt.Sprintf("xpath %q", l.Query)
	}
	return fmt.Sprintf("css %q", l.Query)
}

func ByCSS(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Query: selector}
}

func ByXPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Query: expr}
}

func ByID(id string) Locator {
	return Locator{Strategy: StrategyCSS, Query: fmt.Sprintf("[id=%s]", cssString(id)), desc: fmt.Sprintf("id %q", id)}
}

func ByName(name string) Locator {
	return Locator{Strategy: StrategyCSS, Query: fmt.Sprintf("[name=%s]", cssString(name)), desc: fmt.Sprintf("name %q", name)}
}

func ByClassName(class string) Locator {
	return Locator{Strategy: StrategyCSS, Query: fmt.Sprintf("[class~=%s]", cssString(class)), desc: fmt.Sprintf("class %q", class)}
}

func ByTagName(tag string) Locator {
	return Locator{Strategy: StrategyCSS, Query: tag, desc: fmt.Sprintf("tag %q", tag)}
}

// ByLinkText matches anchors whose whitespace-normalized text equals text.
func ByLinkText(text string) Locator {
	return Locator{
		Strategy: StrategyXPath,
		Query:    fmt.Sprintf("//a[normalize-space(.)=%s]", xpathLiteral(strings.TrimSpace(text))),
		desc:     fmt.Sprintf("link text %q", text),
	}
}

// ByPartialLinkText matches anchors whose text contains text.
func ByPartialLinkText(text string) Locator {
	return Locator{
		Strategy: StrategyXPath,
		Query:    fmt.Sprintf("//a[contains(normalize-space(.),%s)]", xpathLiteral(text)),
		desc:     fmt.Sprintf("partial link text %q", text),
	}
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}
