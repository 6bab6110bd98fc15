// Package dedup canonicalizes fetched items and filters duplicates across
// sources and across runs through three stages: exact URL, exact content
// hash, then text similarity against recent survivors.
package dedup

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/model"
)

// bodyHashPrefix bounds how many runes of body text feed the content hash.
// Trailing content varies across re-publications of the same story; the
// title plus the lede is what actually identifies it.
const bodyHashPrefix = 500

// trackingParams are query parameters stripped during URL canonicalization.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true,
	"ref": true, "source": true, "fbclid": true, "gclid": true,
	"msclkid": true, "mc_cid": true, "mc_eid": true,
	"affiliate": true, "partner": true, "tracking": true,
	"_ga": true, "ncid": true, "sr_share": true,
}

// Normalize converts a RawItem into its comparable form. Items without a
// published timestamp are stamped with now and flagged low-confidence;
// the flag affects display ordering only, never dedup.
func Normalize(raw model.RawItem, now time.Time) model.NormalizedItem {
	title := normalizeText(raw.Title)
	body := normalizeText(raw.Body)
	if r := []rune(body); len(r) > bodyHashPrefix {
		body = string(r[:bodyHashPrefix])
	}

	publishedAt := raw.PublishedAt
	lowConfidence := false
	if publishedAt.IsZero() {
		publishedAt = now
		lowConfidence = true
	}

	sum := sha256.Sum256([]byte(title + "|" + body))

	return model.NormalizedItem{
		Raw:            raw,
		CanonicalURL:   CanonicalURL(raw.URL),
		ContentHash:    fmt.Sprintf("%x", sum),
		PublishedAt:    publishedAt.UTC(),
		LowConfidence:  lowConfidence,
		NormalizedText: strings.TrimSpace(title + " " + body),
	}
}

// CanonicalURL lowercases scheme and host, strips tracking query
// parameters, drops the fragment, collapses duplicate slashes and removes
// the trailing slash. Unparseable URLs pass through unchanged.
func CanonicalURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if trackingParams[strings.ToLower(k)] {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	}

	path := u.EscapedPath()
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	path = strings.TrimSuffix(path, "/")
	u.RawPath = ""
	u.Path = path

	return u.String()
}

// normalizeText lowercases, strips punctuation and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
