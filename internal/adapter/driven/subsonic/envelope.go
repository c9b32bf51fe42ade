package subsonic

// ErrorCode classifies the numeric error codes a failed OpenSubsonic
// request can carry.
type ErrorCode int

const (
	// ErrCodeGeneric is a generic error.
	ErrCodeGeneric ErrorCode = 0
	// ErrCodeMissingParameter means a required request parameter was missing.
	ErrCodeMissingParameter ErrorCode = 10
	// ErrCodeClientMustUpgrade means the client protocol version is too old.
	ErrCodeClientMustUpgrade ErrorCode = 20
	// ErrCodeServerMustUpgrade means the server protocol version is too old.
	ErrCodeServerMustUpgrade ErrorCode = 30
	// ErrCodeBadLogin means the username, password, or token was wrong.
	ErrCodeBadLogin ErrorCode = 40
	// ErrCodeTokenAuthNotSupported means token auth is unavailable for LDAP users.
	ErrCodeTokenAuthNotSupported ErrorCode = 41
	// ErrCodeAuthMechanismNotSupported means the supplied auth mechanism is unsupported.
	ErrCodeAuthMechanismNotSupported ErrorCode = 42
	// ErrCodeConflictingAuthMethods means multiple conflicting auth methods were supplied.
	ErrCodeConflictingAuthMethods ErrorCode = 43
	// ErrCodeInvalidAPIKey means the API key was rejected.
	ErrCodeInvalidAPIKey ErrorCode = 44
	// ErrCodeNotAuthorized means authentication succeeded but the operation is forbidden.
	ErrCodeNotAuthorized ErrorCode = 50
	// ErrCodeTrialExpired means the server's Subsonic trial ran out.
	ErrCodeTrialExpired ErrorCode = 60
	// ErrCodeNotFound means the requested thing was not found.
	ErrCodeNotFound ErrorCode = 70
	// ErrCodeUnrecognized is the sentinel for any numeric code not in the
	// table above. The raw number is preserved on the ProtocolError.
	ErrCodeUnrecognized ErrorCode = -1
)

var errorCodeNames = map[ErrorCode]string{
	ErrCodeGeneric:                   "generic",
	ErrCodeMissingParameter:          "missing parameter",
	ErrCodeClientMustUpgrade:         "client must upgrade",
	ErrCodeServerMustUpgrade:         "server must upgrade",
	ErrCodeBadLogin:                  "bad login",
	ErrCodeTokenAuthNotSupported:     "token auth not supported",
	ErrCodeAuthMechanismNotSupported: "auth mechanism not supported",
	ErrCodeConflictingAuthMethods:    "conflicting auth methods",
	ErrCodeInvalidAPIKey:             "invalid API key",
	ErrCodeNotAuthorized:             "not authorized",
	ErrCodeTrialExpired:              "trial expired",
	ErrCodeNotFound:                  "not found",
	ErrCodeUnrecognized:              "unrecognized",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "unrecognized"
}

// errorCodeFromWire maps a wire number to its classified code, falling back
// to the sentinel rather than failing the decode.
func errorCodeFromWire(code int) ErrorCode {
	if _, ok := errorCodeNames[ErrorCode(code)]; ok && code >= 0 {
		return ErrorCode(code)
	}
	return ErrCodeUnrecognized
}

// IsCredentialError reports whether the code requires user action on the
// stored credential rather than a retry.
func (c ErrorCode) IsCredentialError() bool {
	switch c {
	case ErrCodeBadLogin, ErrCodeTokenAuthNotSupported, ErrCodeAuthMechanismNotSupported,
		ErrCodeConflictingAuthMethods, ErrCodeInvalidAPIKey:
		return true
	}
	return false
}
