package fetcher

import "net/url"

func extractDomain(urlString string) string {
	u, err := url.Parse(urlString)
	if err != nil {
		return ""
	}
	return u.Host
}

func makeAbsoluteURL(href, baseURL string) string {
	relativeURL, err := url.Parse(href)
	if err != nil {
		return ""
	}

	baseURLParsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	absoluteURL := baseURLParsed.ResolveReference(relativeURL)
	return absoluteURL.String()
}
