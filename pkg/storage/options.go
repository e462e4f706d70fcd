package storage

// Option configures Put operations.
type Option func(*putOptions)

type putOptions struct {
	contentType  string
	acl          ACL
	cacheControl string
}

// WithContentType overrides the content type guessed from the key's extension.
func WithContentType(ct string) Option {
	return func(o *putOptions) {
		o.contentType = ct
	}
}

// WithACL overrides the default ACL for this upload. Local storage ignores it.
func WithACL(acl ACL) Option {
	return func(o *putOptions) {
		o.acl = acl
	}
}

// WithCacheControl sets the Cache-Control header on S3 objects.
func WithCacheControl(v string) Option {
	return func(o *putOptions) {
		o.cacheControl = v
	}
}

func applyPutOptions(defaultACL ACL, key string, opts []Option) *putOptions {
	o := &putOptions{acl: defaultACL}
	for _, opt := range opts {
		opt(o)
	}
	if o.contentType == "" {
		o.contentType = contentTypeFor(key)
	}
	return o
}
