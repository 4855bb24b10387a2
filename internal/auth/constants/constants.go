package constants

const (
	// IdentityToolkitURL is the Identity Toolkit REST API base
	IdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

	// SecureTokenIssuer is the issuer prefix of Identity Toolkit ID tokens; the project ID follows it
	SecureTokenIssuer = "https://securetoken.google.com/"

	// SecureTokenJWKS serves the keys Identity Toolkit ID tokens are signed with
	SecureTokenJWKS = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	// MemoryIssuer is the issuer of ID tokens minted by the memory provider
	MemoryIssuer = "aqua-scheduler/memory"

	// TokenType for Bearer authentication
	TokenType = "Bearer"
)
