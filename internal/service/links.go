package service

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/noscite/noscite-assistant/internal/content"
)

var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]*)\)`)

// LinkNormalizer rewrites markdown links in generated text so that only
// absolute links to known site sections survive. Other links keep their label.
type LinkNormalizer struct {
	base *url.URL
}

func NewLinkNormalizer(siteBaseURL string) *LinkNormalizer {
	base, err := url.Parse(strings.TrimRight(siteBaseURL, "/"))
	if err != nil || base.Host == "" {
		base, _ = url.Parse("https://noscite.it")
	}
	return &LinkNormalizer{base: base}
}

// SectionURL returns the absolute URL of a site section.
func (n *LinkNormalizer) SectionURL(section string) string {
	return n.base.Scheme + "://" + n.base.Host + "/" + section
}

func (n *LinkNormalizer) Normalize(text string) string {
	return markdownLink.ReplaceAllStringFunc(text, func(m string) string {
		parts := markdownLink.FindStringSubmatch(m)
		label, target := parts[1], parts[2]

		if section, ok := n.section(target); ok {
			return "[" + label + "](" + n.SectionURL(section) + ")"
		}
		return label
	})
}

// section reports the known section a link points to, if any.
func (n *LinkNormalizer) section(target string) (string, bool) {
	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		if !strings.EqualFold(strings.TrimPrefix(u.Hostname(), "www."), strings.TrimPrefix(n.base.Hostname(), "www.")) {
			return "", false
		}
	}

	first := strings.Trim(u.Path, "/")
	if i := strings.Index(first, "/"); i >= 0 {
		first = first[:i]
	}
	if content.IsSection(first) {
		return first, true
	}
	return "", false
}
