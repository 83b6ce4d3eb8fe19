package extractor

// ContentSelectors are the containers probed for the article body, in priority order.
var ContentSelectors = []string{
	"article",
	"[role='article']",
	".article-body",
	".article-content",
	".entry-content",
	".post-content",
	".story-body",
	".content-body",
	"main",
	"#content",
}

// StripSelectors are removed from the chosen container before reading its text.
var StripSelectors = []string{
	"script",
	"style",
	"noscript",
	"template",
	"iframe",
	"form",
	"nav",
	"header",
	"footer",
	"aside",
	"[class*='advert']",
	"[class*='ad-']",
	"[id*='advert']",
	"[class*='social']",
	"[class*='share']",
	"[class*='related']",
	"[class*='newsletter']",
	"[class*='promo']",
}
