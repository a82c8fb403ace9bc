package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocators(t *testing.T) {
	tests := []struct {
		name     string
		loc      Locator
		strategy Strategy
		query    string
		desc     string
	}{
		{name: "css", loc: ByCSS("div > a"), strategy: StrategyCSS, query: "div > a", desc: `css "div > a"`},
		{name: "xpath", loc: ByXPath("//h1"), strategy: StrategyXPath, query: "//h1", desc: `xpath "//h1"`},
		{name: "id", loc: ByID("main"), strategy: StrategyCSS, query: `[id="main"]`, desc: `id "main"`},
		{name: "name", loc: ByName("q"), strategy: StrategyCSS, query: `[name="q"]`, desc: `name "q"`},
		{name: "class", loc: ByClassName("btn"), strategy: StrategyCSS, query: `[class~="btn"]`, desc: `class "btn"`},
		{name: "tag", loc: ByTagName("input"), strategy: StrategyCSS, query: "input", desc: `tag "input"`},
		{name: "link text", loc: ByLinkText("Sign in"), strategy: StrategyXPath, query: `//a[normalize-space(.)="Sign in"]`, desc: `link text "Sign in"`},
		{name: "partial link text", loc: ByPartialLinkText("Sign"), strategy: StrategyXPath, query: `//a[contains(normalize-space(.),"Sign")]`, desc: `partial link text "Sign"`},
		{name: "quoted name", loc: ByName(`a"b`), strategy: StrategyCSS, query: `[name="a\"b"]`, desc: `name "a\"b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.strategy, tt.loc.Strategy)
			assert.Equal(t, tt.query, tt.loc.Query)
			assert.Equal(t, tt.desc, tt.loc.String())
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `"plain"`, xpathLiteral("plain"))
	assert.Equal(t, `'say "hi"'`, xpathLiteral(`say "hi"`))
	assert.Equal(t, `concat("it's ",'"',"x",'"')`, xpathLiteral(`it's "x"`))
}
