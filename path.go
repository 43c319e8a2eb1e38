package authstore

import "strings"

type notFound struct{}
type signOut struct{}
type providers struct{}
type csrf struct{}
type session struct{}
type unmatched struct{}
type provider struct {
	providerId string
}
type callback struct {
	providerId string
}

func parsePath(path, basePath string) any {
	if path != basePath && !strings.HasPrefix(path, basePath+"/") {
		return unmatched{}
	}

	ownedPath := strings.TrimPrefix(strings.TrimPrefix(path, basePath), "/")
	if len(ownedPath) == 0 {
		return notFound{}
	}

	parts := strings.Split(ownedPath, "/")

	if len(parts) == 2 && parts[1] == "callback" && parts[0] != "" {
		return callback{parts[0]}
	}

	if len(parts) == 1 {
		switch parts[0] {
		case "providers":
			return providers{}
		case "sign-out":
			return signOut{}
		case "csrf":
			return csrf{}
		case "session":
			return session{}
		default:
			return provider{parts[0]}
		}
	}

	return notFound{}
}
