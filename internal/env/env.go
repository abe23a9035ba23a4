package env

import (
	"os"
)

const (
	AWSRegion        = "AWS_REGION"
	AWSID            = "AWS_ID"
	AWSSecret        = "AWS_SECRET"
	AWSToken         = "AWS_TOKEN"
	DynamoDBEndpoint = "DYNAMODB_ENDPOINT"
	AdminSecretKey   = "ADMIN_SECRET"
	AdminCredential  = "ADMIN_CREDENTIAL_HASH"
	FeedRedisURL     = "FEED_REDIS_URL"
	FeedRedisPass    = "FEED_REDIS_PASS"
	SessionRedisURL  = "SESSION_REDIS_URL"
	SessionRedisPass = "SESSION_REDIS_PASS"
	CacheRedisURL    = "CACHE_REDIS_URL"
	CacheRedisPass   = "CACHE_REDIS_PASS"
	QueueRedisURL    = "QUEUE_REDIS_URL"
	QueueRedisPass   = "QUEUE_REDIS_PASS"
	UsageDatabaseURL = "USAGE_DATABASE_URL"
	InternalDomains  = "INTERNAL_EMAIL_DOMAINS"
	SMTPHost         = "SMTP_HOST"
	SMTPPort         = "SMTP_PORT"
	SMTPUser         = "SMTP_USER"
	SMTPPass         = "SMTP_PASS"
	SMTPFrom         = "SMTP_FROM"
	AssetEndpoint    = "ASSET_ENDPOINT"
	AssetAccessKey   = "ASSET_ACCESS_KEY"
	AssetSecretKey   = "ASSET_SECRET_KEY"
	AssetBucket      = "ASSET_BUCKET"
	AssetLocalDir    = "ASSET_LOCAL_DIR"
	WebUrl           = "WEB_URL"
)

func init() {
	required := []string{
		AWSRegion,
		AWSID,
		AWSSecret,
		// AWSToken,
		AdminSecretKey,
		AdminCredential,
		FeedRedisURL,
		WebUrl,
	}
	for _, key := range required {
		if os.Getenv(key) == "" {
			panic("env: required environment variable not set: " + key)
		}
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}
