package ledger

import (
	"net/url"
)

const explorerBaseURL = "https://explorer.solana.com/tx/"

// ExplorerURL returns a block explorer link for signature on cluster.
//
// Localnet transactions are linked through the explorer's custom endpoint mode using rpcEndpoint.
func ExplorerURL(signature string, cluster Cluster, rpcEndpoint string) string {
	link := explorerBaseURL + url.PathEscape(signature)

	switch cluster {
	case ClusterMainnet:
		return link
	case ClusterLocalnet:
		q := url.Values{}
		q.Set("cluster", "custom")
		q.Set("customUrl", rpcEndpoint)
		return link + "?" + q.Encode()
	default:
		return link + "?cluster=" + string(cluster)
	}
}
