package lnd

// Channel represents a Lightning Network channel as reported by listchannels
type Channel struct {
	ChanID        string `json:"chan_id"`
	ChannelPoint  string `json:"channel_point"`
	RemotePubkey  string `json:"remote_pubkey"`
	Capacity      string `json:"capacity"`
	LocalBalance  string `json:"local_balance"`
	RemoteBalance string `json:"remote_balance"`
	Active        bool   `json:"active"`
	Private       bool   `json:"private"`
}

// NodeInfo represents basic node information
type NodeInfo struct {
	PubKey string `json:"pub_key"`
	Alias  string `json:"alias"`
}

// NodeResponse represents the response from getnodeinfo
type NodeResponse struct {
	Node NodeInfo `json:"node"`
}

// ChannelResponse represents the response from listchannels
type ChannelResponse struct {
	Channels []Channel `json:"channels"`
}

// Config holds the flags passed to every lncli invocation.
// Empty fields are left to lncli's own defaults.
type Config struct {
	LncliPath    string
	RPCServer    string
	TLSCertPath  string
	MacaroonPath string
	Network      string
}
