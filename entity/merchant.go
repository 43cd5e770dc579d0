package entity

// Merchant holds the caller's credentials and the common protocol fields
// attached to every signed request. The json tags are the wire names; the
// key material never leaves the process.
type Merchant struct {
	// AppId is the application identity assigned by the provider
	AppId string `json:"app_id"`
	// Method selects the API operation; must be set before signing
	Method string `json:"method"`
	// Format of the response payload, always JSON
	Format    string `json:"format"`
	ReturnUrl string `json:"return_url"`
	Charset   string `json:"charset"`
	// SignType selects the signature algorithm: RSA (SHA1) or RSA2 (SHA256)
	SignType  string `json:"sign_type"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	NotifyUrl string `json:"notify_url"`
	// AppAuthToken authorizes calls on behalf of another merchant
	AppAuthToken string `json:"app_auth_token"`
	// BizContent carries the operation payload as a JSON string
	BizContent string `json:"biz_content"`

	// PrivateKey signs outgoing requests; PublicKey is the provider key
	// used to verify notifications. Both are excluded from the wire.
	PrivateKey string `json:"-"`
	PublicKey  string `json:"-"`
}
