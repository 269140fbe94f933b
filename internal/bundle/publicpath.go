package bundle

import (
	"fmt"
	"net/url"
	"strings"
)

const stubDomain = "https://create-react-app.dev"

// PublicURLOrPath computes the base URL or path that emitted asset references are served under.
// envPublicURL takes precedence over homepage; both fall back to "/".
func PublicURLOrPath(isDev bool, homepage, envPublicURL string) (string, error) {
	if envPublicURL != "" {
		envPublicURL = withTrailingSlash(envPublicURL)

		pathname, err := pathnameOf(envPublicURL)
		if err != nil {
			return "", fmt.Errorf("invalid PUBLIC_URL %q: %w", envPublicURL, err)
		}

		if isDev {
			if strings.HasPrefix(envPublicURL, ".") {
				return "/", nil
			}
			return pathname, nil
		}

		return envPublicURL, nil
	}

	if homepage != "" {
		homepage = withTrailingSlash(homepage)

		pathname, err := pathnameOf(homepage)
		if err != nil {
			return "", fmt.Errorf("invalid homepage %q: %w", homepage, err)
		}

		if strings.HasPrefix(homepage, ".") {
			if isDev {
				return "/", nil
			}
			return homepage, nil
		}

		return pathname, nil
	}

	return "/", nil
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

// pathnameOf resolves ref against the stub domain and returns the resulting path.
func pathnameOf(ref string) (string, error) {
	base, err := url.Parse(stubDomain)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	resolved := base.ResolveReference(u)
	if resolved.Path == "" {
		return "/", nil
	}
	return resolved.EscapedPath(), nil
}
