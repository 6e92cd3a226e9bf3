package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Field limits shared by the client and the backend. Lengths are counted
// in runes.
const (
	MaxPostLength = 500
	MaxBioLength  = 200

	MinPasswordLength = 6
)
