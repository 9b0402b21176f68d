package domain

import "strings"

// RouteClass is the gate's view of a request path.
type RouteClass string

const (
	RoutePublicAuth RouteClass = "public-auth"
	RouteAPI        RouteClass = "api"
	RouteProtected  RouteClass = "protected"
)

const (
	SignInPath        = "/sign-in"
	SignUpPath        = "/sign-up"
	ResetPasswordPath = "/reset-password"
	APIPrefix         = "/api"
)

var publicAuthPrefixes = []string{SignInPath, SignUpPath, ResetPasswordPath}

// ClassifyRoute places path into exactly one RouteClass. Prefixes match on
// whole path segments, so /sign-in/verify is public-auth but /sign-inx is not.
func ClassifyRoute(path string) RouteClass {
	for _, p := range publicAuthPrefixes {
		if hasSegmentPrefix(path, p) {
			return RoutePublicAuth
		}
	}
	if hasSegmentPrefix(path, APIPrefix) {
		return RouteAPI
	}
	return RouteProtected
}

func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}
