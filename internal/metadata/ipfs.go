package metadata

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var ipfsCidRe = regexp.MustCompile("(Qm[1-9A-HJ-NP-Za-km-z]{44}.*$)")

func IsUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func IsIpfs(uri string) bool {
	if parts := ipfsCidRe.FindStringSubmatch(uri); len(parts) == 2 {
		return true
	}

	if !IsUrl(uri) {
		return false
	}

	u, _ := url.Parse(uri)

	return u.Scheme == "ipfs"
}

// gatewayUri rewrites an ipfs:// uri or a bare CID path onto an HTTP gateway.
// Non-ipfs uris are returned unchanged.
func gatewayUri(uri, host string) string {
	if strings.HasPrefix(uri, "ipfs://") {
		return fmt.Sprintf("%s/ipfs/%s", host, uri[7:])
	}

	if parts := ipfsCidRe.FindStringSubmatch(uri); len(parts) == 2 && !IsUrl(uri) {
		return fmt.Sprintf("%s/ipfs/%s", host, parts[1])
	}

	return uri
}
