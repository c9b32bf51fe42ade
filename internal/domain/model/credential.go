package model

// Credential is the authentication material for one server. Exactly one
// concrete variant exists per server: a username with a password that gets
// salted and hashed per request, or an opaque API key. Any other combination
// is a configuration error, not a state the store will accept.
type Credential interface {
	credential()
}

// PasswordCredential authenticates with a username and a password. The
// password is never sent as-is; the protocol codec salts and hashes it into
// a one-time token per request.
type PasswordCredential struct {
	Username string
	Password string
}

func (PasswordCredential) credential() {}

// APIKeyCredential authenticates with a bare API key. There is no username.
type APIKeyCredential struct {
	Key string
}

func (APIKeyCredential) credential() {}

// NewCredential builds the single valid credential variant from optional
// username/password/apiKey values, where the empty string means absent.
// Exactly one variant's fields must be populated.
func NewCredential(username, password, apiKey string) (Credential, error) {
	hasPassword := username != "" && password != ""
	hasKey := apiKey != ""

	switch {
	case hasPassword && hasKey:
		return nil, &ConfigurationError{Reason: "both password and API key credentials set"}
	case hasPassword:
		return PasswordCredential{Username: username, Password: password}, nil
	case hasKey:
		return APIKeyCredential{Key: apiKey}, nil
	case username != "" || password != "":
		return nil, &ConfigurationError{Reason: "username and password must both be set"}
	default:
		return nil, &ConfigurationError{Reason: "no credential set"}
	}
}

// describeCredential names the variant without exposing any secret.
func describeCredential(c Credential) string {
	switch c := c.(type) {
	case PasswordCredential:
		return "password(user=" + c.Username + ")"
	case APIKeyCredential:
		return "apiKey(defined)"
	case nil:
		return "none"
	default:
		return "unknown"
	}
}
