package provision

import "context"

// IngestClient talks to the search cluster's ingest and plugin APIs.
type IngestClient interface {
	PutPipeline(ctx context.Context, name string, body []byte) error
	CatPlugins(ctx context.Context) ([]string, error)
}

// SettingsStore persists the capability flag so other processes can reuse it.
type SettingsStore interface {
	Plugin(ctx context.Context, name string) (active, found bool, err error)
	SetPlugin(ctx context.Context, name string, active bool) error
	ForgetPlugin(ctx context.Context, name string) error
}

// remoteDetail is implemented by transport errors that carry the cluster's reason.
type remoteDetail interface {
	Detail() string
}
