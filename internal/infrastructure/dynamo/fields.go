package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUpdatedAt          = "updated_at"
	fieldVerificationToken  = "verification_token"
	fieldVerificationExpiry = "verification_expiry"
	fieldTokenPurpose       = "token_purpose"
	fieldStatus             = "status"
)

// tokenFields are set and removed together so a record never holds a partial token.
var tokenFields = []string{fieldVerificationToken, fieldVerificationExpiry, fieldTokenPurpose}
