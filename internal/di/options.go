package di

// Region pins the AWS region when non-empty.
type Region string

// StaticCredentials carries the fixed credential pair the CI pipeline
// supplies. Empty values fall through to the default credential chain.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// IsZero reports whether no static credentials were supplied.
func (c StaticCredentials) IsZero() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}

type options struct {
	providers   []any
	region      Region
	credentials StaticCredentials
}

// Option configures the DI container.
type Option func(*options)

// WithProviders registers additional constructors in the container.
func WithProviders(providers ...any) Option {
	return func(o *options) {
		o.providers = append(o.providers, providers...)
	}
}

// WithRegion pins the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = Region(region)
	}
}

// WithStaticCredentials installs a fixed credential pair.
func WithStaticCredentials(accessKeyID, secretAccessKey string) Option {
	return func(o *options) {
		o.credentials = StaticCredentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}
	}
}
