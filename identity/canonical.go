package identity

import (
	"net/url"
	"sort"
	"strings"
)

// Tracking and session parameters that marketplaces append to listing URLs.
// Two scrapes of the same listing often differ only in these, so they must not
// defeat URL-based deduplication.
var strippedParams = map[string]bool{
	"gclid":       true,
	"fbclid":      true,
	"msclkid":     true,
	"igshid":      true,
	"ref":         true,
	"referrer":    true,
	"mkcid":       true,
	"mkrid":       true,
	"mkevt":       true,
	"campid":      true,
	"customid":    true,
	"hash":        true,
	"_trksid":     true,
	"_trkparms":   true,
	"spm":         true,
	"cmpid":       true,
	"siteid":      true,
	"ssspo":       true,
	"sssrc":       true,
	"ssuid":       true,
	"widget_view": true,
}

// CanonicalURL normalizes a listing URL into the form used as the offer
// dedup key: lowercase scheme and host, no fragment, no tracking parameters,
// remaining query sorted, no trailing slash on the path. Inputs that do not
// parse as absolute URLs are returned trimmed but otherwise untouched.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if strippedParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = encodeSorted(q)
	}

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}

	return u.String()
}

// encodeSorted is url.Values.Encode with deterministic key order, so that
// canonical forms compare byte-for-byte.
func encodeSorted(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
