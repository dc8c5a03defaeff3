package dynamo

// DynamoDB attribute names used in key and condition expressions across all repos.
// Several ("timestamp", "token") are reserved words, so expressions always go
// through ExpressionAttributeNames.
const (
	fieldUserID    = "user_id"
	fieldEmail     = "email"
	fieldAccountID = "account_id"
	fieldBalance   = "balance"
	fieldUpdatedAt = "updated_at"
	fieldTimestamp = "timestamp"
	fieldToken     = "token"
	fieldExpiresAt = "expires_at"
)

const (
	indexEmail  = "email-index"
	indexUserID = "user_id-index"
)
